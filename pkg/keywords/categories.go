package keywords

// =============================================================================
// LEXICON DEFINITIONS BY CATEGORY
// All base terms are registered here at package init. This is the single
// source of truth for the canonical categories used by distress detection
// and risk aggregation; the category index expands them with thesaurus
// synonyms at build time.
// =============================================================================

// --- NEGATIVE SENTIMENT (risk aggregation over sentiment labels) ---
func (r *Registry) registerNegativeSentiment() {
	r.register(CategoryNegativeSentiment,
		"negative", "neg", "bad", "sad", "angry", "upset", "unhappy",
	)
}

// --- SEVERE EMOTION (distress escalation and risk aggregation) ---
func (r *Registry) registerSevereEmotion() {
	r.register(CategorySevereEmotion,
		"sadness", "anger", "fear", "disgust", "shame",
		"guilt", "hopelessness", "despair", "rage",
	)
}

// --- URGENT PHRASES (crisis keyword rule) ---
// Declaration order is scan order; the first phrase found in a message is
// authoritative. There is no severity ranking.
func (r *Registry) registerUrgentPhrases() {
	r.urgent = []string{
		"suicide",
		"kill myself",
		"ending it all",
		"can't go on",
		"don't want to live",
		"hopeless",
		"no way out",
		"hurting myself",
		"want to die",
		"end it all",
	}
}
