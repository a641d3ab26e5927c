package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	chromem "github.com/philippgille/chromem-go"

	"github.com/havenlabs/haven/pkg/config"
	"github.com/havenlabs/haven/pkg/dialogue"
	"github.com/havenlabs/haven/pkg/keywords"
	"github.com/havenlabs/haven/pkg/nlp"
	"github.com/havenlabs/haven/pkg/telemetry"
)

const Version = "0.1.0"

// Engine bundles the analysis and dialogue components.
// The classifier backend is optional and degrades to neutral results.
type Engine struct {
	config     *config.Config
	gateway    *nlp.Gateway
	detector   *nlp.Detector
	aggregator *nlp.Aggregator
	manager    *dialogue.Manager
	store      dialogue.SessionStore
	tracker    *telemetry.Tracker
	hugot      *nlp.HugotClassifier  // set when the local backend is active
	remote     *nlp.RemoteClassifier // set when the remote backend is active
}

// NewEngine wires the components from configuration.
func NewEngine(cfg *config.Config) (*Engine, error) {
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}

	tracker := telemetry.NewTracker()
	keywords.Get().SetUrgentPhrases(cfg.UrgentKeywords)

	var thesaurus nlp.Thesaurus
	if cfg.ThesaurusBaseURL != "" {
		thesaurus = nlp.NewHTTPThesaurus(nlp.HTTPThesaurusConfig{
			BaseURL: cfg.ThesaurusBaseURL,
			Timeout: cfg.ThesaurusTimeout,
		})
	} else {
		log.Println("○ Thesaurus disabled, category matching is literal-only")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	index := nlp.NewCategoryIndex(ctx, thesaurus, tracker)
	if index.Degraded() {
		log.Println("○ Synonym expansion degraded, literal matching only")
	} else if thesaurus != nil {
		log.Println("✓ Synonym-expanded category index ready")
	}

	e := &Engine{config: cfg, tracker: tracker}

	var classifier nlp.Classifier
	switch cfg.ClassifierBackend {
	case config.BackendHugot:
		hugotCfg := nlp.DefaultHugotConfig()
		hugotCfg.Timeout = cfg.ClassifierTimeout
		e.hugot = nlp.NewHugotClassifierWithFallback(hugotCfg)
		if e.hugot.IsReady() {
			classifier = e.hugot
			log.Println("✓ Local classification enabled (hugot/ONNX)")
		} else {
			log.Println("○ Local classification disabled (no models), neutral results only")
		}
	case config.BackendRemote:
		remote, err := nlp.NewRemoteClassifier(nlp.RemoteClassifierConfig{
			APIKey:  cfg.ClassifierAPIKey,
			BaseURL: cfg.ClassifierBaseURL,
			Timeout: cfg.ClassifierTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("remote classifier: %w", err)
		}
		e.remote = remote
		classifier = remote
		log.Println("✓ Remote classification enabled")
	case config.BackendNone:
		log.Println("○ Classification disabled, neutral results only")
	default:
		return nil, fmt.Errorf("unknown classifier backend: %s", cfg.ClassifierBackend)
	}

	e.gateway = nlp.NewGateway(classifier, nlp.GatewayConfig{
		MaxTextLength:  cfg.MaxTextLength,
		EnableToxicity: cfg.EnableToxicity,
	}, tracker)

	var matcher *nlp.CrisisMatcher
	if cfg.EnableSemanticCrisis {
		// Empty base URL uses the local Ollama default.
		m, err := nlp.NewCrisisMatcher(chromem.NewEmbeddingFuncOllama("nomic-embed-text", ""))
		if err != nil {
			log.Printf("○ Semantic crisis matching disabled (init failed: %v)", err)
		} else if err := m.LoadPhrases(ctx); err != nil {
			log.Printf("○ Semantic crisis matching disabled (phrase load failed: %v)", err)
		} else {
			matcher = m
			log.Printf("✓ Semantic crisis matching enabled (%d phrases)", m.PhraseCount())
		}
	}

	e.detector = nlp.NewDetector(e.gateway, index, matcher, nlp.DetectorConfig{
		SentimentUrgentThreshold: cfg.SentimentUrgentThreshold,
		EmotionUrgentThreshold:   cfg.EmotionUrgentThreshold,
	}, tracker)

	e.aggregator = nlp.NewAggregator(index, nlp.AggregatorConfig{
		HighThreshold:   cfg.RiskHighThreshold,
		MediumThreshold: cfg.RiskMediumThreshold,
	})

	if cfg.RedisAddr != "" {
		store, err := dialogue.NewRedisStore(ctx, dialogue.RedisStoreConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			MaxAge:   cfg.SessionTTL,
		})
		if err != nil {
			return nil, fmt.Errorf("redis session store: %w", err)
		}
		e.store = store
		log.Printf("✓ Redis session store at %s", cfg.RedisAddr)
	} else {
		e.store = dialogue.NewInMemoryStore(
			dialogue.WithMaxAge(cfg.SessionTTL),
			dialogue.WithSweepInterval(cfg.SweepInterval),
		)
		log.Println("✓ In-memory session store")
	}

	e.manager = dialogue.NewManager(e.store, e.gateway, e.detector, dialogue.ManagerConfig{
		MaxHistory: cfg.MaxHistory,
	}, tracker)

	return e, nil
}

// Close releases backend resources.
func (e *Engine) Close() {
	if e.hugot != nil {
		if err := e.hugot.Close(); err != nil {
			log.Printf("[WARN] classifier shutdown: %v", err)
		}
	}
	if err := e.store.Close(); err != nil {
		log.Printf("[WARN] store shutdown: %v", err)
	}
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		port := "3000"
		if len(os.Args) > 2 {
			port = os.Args[2]
		}
		runHTTPServer(port)
	case "detect":
		if len(os.Args) < 3 {
			fmt.Println("Usage: haven detect <text>")
			os.Exit(1)
		}
		runCLIDetect(strings.Join(os.Args[2:], " "))
	case "score":
		if len(os.Args) < 3 {
			fmt.Println("Usage: haven score <sentiments> [emotions] (comma-separated labels)")
			os.Exit(1)
		}
		var emotions string
		if len(os.Args) > 3 {
			emotions = os.Args[3]
		}
		runCLIScore(os.Args[2], emotions)
	case "version":
		fmt.Printf("Haven v%s\n", Version)
		fmt.Println("Conversational risk-assessment engine")
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf("Haven v%s - conversational risk-assessment engine\n\n", Version)
	fmt.Println("Usage:")
	fmt.Println("  haven serve [port]                 Start HTTP server (default: 3000)")
	fmt.Println("  haven detect <text>                Run distress detection on text")
	fmt.Println("  haven score <sentiments> [emotions]  Score a comma-separated label history")
	fmt.Println("  haven version                      Show version")
	fmt.Println("")
	fmt.Println("Examples:")
	fmt.Println("  haven serve 8080")
	fmt.Println("  haven detect \"I can't go on like this\"")
	fmt.Println("  haven score negative,negative,positive sadness,joy")
	fmt.Println("")
	fmt.Println("Environment Variables:")
	fmt.Println("  HAVEN_CLASSIFIER_BACKEND   hugot, remote, or none (default: hugot)")
	fmt.Println("  HAVEN_CLASSIFIER_BASE_URL  Remote inference API base URL")
	fmt.Println("  HAVEN_REDIS_ADDR           Redis address for the session store")
	fmt.Println("  HAVEN_THESAURUS_BASE_URL   Synonym lookup API base URL")
}

// ============================================================================
// HTTP Server Mode
// ============================================================================

func runHTTPServer(port string) {
	cfg := config.NewDefaultConfig()
	cfg.MustValidate()

	engine, err := NewEngine(cfg)
	if err != nil {
		log.Fatalf("[STARTUP] FATAL: %v", err)
	}
	defer engine.Close()

	app := fiber.New(fiber.Config{
		AppName: "Haven",
	})

	app.Get("/health", func(c fiber.Ctx) error {
		classifierReady := engine.hugot != nil && engine.hugot.IsReady() || engine.remote != nil
		return c.JSON(fiber.Map{
			"status":           "ok",
			"version":          Version,
			"classifier_ready": classifierReady,
		})
	})

	app.Get("/stats", func(c fiber.Ctx) error {
		storeStats, err := engine.manager.Stats(c.Context())
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "stats unavailable"})
		}
		stats := fiber.Map{
			"sessions": storeStats,
			"events":   engine.tracker.Snapshot(),
		}
		if engine.hugot != nil {
			stats["classifier"] = engine.hugot.Stats()
		}
		if engine.remote != nil {
			stats["classifier"] = engine.remote.Stats()
		}
		return c.JSON(stats)
	})

	app.Post("/chat/reply", func(c fiber.Ctx) error {
		var req struct {
			UserID  string `json:"user_id"`
			Message string `json:"message"`
		}
		if err := c.Bind().Body(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
		}
		if req.UserID == "" || req.Message == "" {
			return c.Status(400).JSON(fiber.Map{"error": "user_id and message are required"})
		}
		reply := engine.manager.GetReply(c.Context(), req.UserID, req.Message)
		return c.JSON(fiber.Map{"reply": reply})
	})

	app.Get("/chat/history/:user_id", func(c fiber.Ctx) error {
		userID := c.Params("user_id")
		limit := 10
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				return c.Status(400).JSON(fiber.Map{"error": "limit must be a non-negative integer"})
			}
			limit = n
		}
		history := engine.manager.GetHistory(c.Context(), userID, limit)
		return c.JSON(fiber.Map{"user_id": userID, "history": history})
	})

	app.Post("/chat/reset", func(c fiber.Ctx) error {
		var req struct {
			UserID string `json:"user_id"`
		}
		if err := c.Bind().Body(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
		}
		if req.UserID == "" {
			return c.Status(400).JSON(fiber.Map{"error": "user_id is required"})
		}
		if err := engine.manager.ResetSession(c.Context(), req.UserID); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "reset failed"})
		}
		return c.JSON(fiber.Map{"status": "reset"})
	})

	app.Post("/nlp/classify", func(c fiber.Ctx) error {
		var req struct {
			Text string `json:"text"`
		}
		if err := c.Bind().Body(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
		}
		if req.Text == "" {
			return c.Status(400).JSON(fiber.Map{"error": "text field is required"})
		}
		return c.JSON(engine.gateway.ClassifyAll(c.Context(), req.Text))
	})

	app.Post("/nlp/distress", func(c fiber.Ctx) error {
		var req struct {
			Text string `json:"text"`
		}
		if err := c.Bind().Body(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
		}
		if req.Text == "" {
			return c.Status(400).JSON(fiber.Map{"error": "text field is required"})
		}
		return c.JSON(engine.detector.Detect(c.Context(), req.Text))
	})

	app.Post("/nlp/risk", func(c fiber.Ctx) error {
		var req struct {
			Sentiments []string `json:"sentiments"`
			Emotions   []string `json:"emotions"`
		}
		if err := c.Bind().Body(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
		}
		return c.JSON(engine.aggregator.Score(c.Context(), req.Sentiments, req.Emotions))
	})

	app.Post("/nlp/toxicity", func(c fiber.Ctx) error {
		var req struct {
			Text string `json:"text"`
		}
		if err := c.Bind().Body(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
		}
		if req.Text == "" {
			return c.Status(400).JSON(fiber.Map{"error": "text field is required"})
		}
		return c.JSON(engine.gateway.AnalyzeToxicity(c.Context(), req.Text))
	})

	log.Printf("Haven HTTP server starting on :%s", port)
	log.Printf("Endpoints:")
	log.Printf("  GET  /health                  - Health check")
	log.Printf("  GET  /stats                   - Session and classifier statistics")
	log.Printf("  POST /chat/reply              - One conversation turn")
	log.Printf("  GET  /chat/history/:user_id   - Recent turns (query: limit)")
	log.Printf("  POST /chat/reset              - Delete a session")
	log.Printf("  POST /nlp/classify            - Sentiment/emotion analysis")
	log.Printf("  POST /nlp/distress            - Distress detection")
	log.Printf("  POST /nlp/risk                - Risk scoring over label history")
	log.Printf("  POST /nlp/toxicity            - Toxicity analysis")

	if err := app.Listen(":" + port); err != nil {
		log.Fatal(err)
	}
}

// ============================================================================
// CLI Mode
// ============================================================================

func runCLIDetect(text string) {
	cfg := config.NewDefaultConfig()
	engine, err := NewEngine(cfg)
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}
	defer engine.Close()

	result := engine.detector.Detect(context.Background(), text)
	output, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(output))
}

func runCLIScore(sentimentsArg, emotionsArg string) {
	cfg := config.NewDefaultConfig()
	engine, err := NewEngine(cfg)
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}
	defer engine.Close()

	sentiments := splitLabels(sentimentsArg)
	emotions := splitLabels(emotionsArg)

	result := engine.aggregator.Score(context.Background(), sentiments, emotions)
	output, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(output))
}

func splitLabels(arg string) []string {
	if arg == "" {
		return nil
	}
	var labels []string
	for _, p := range strings.Split(arg, ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			labels = append(labels, trimmed)
		}
	}
	return labels
}
