package dialogue

// Reply wording for each dialogue state. The crisis and fallback texts are
// fixed; state handlers pick between at most two variants.

// CrisisReply is returned whenever distress detection reports urgent. It
// bypasses the state machine entirely.
const CrisisReply = "I'm concerned about what you're sharing. Your safety is important. " +
	"Please consider reaching out to a mental health professional or crisis hotline immediately. " +
	"In the US, you can call 988 for the Suicide & Crisis Lifeline, or text HOME to 741741 for Crisis Text Line. " +
	"You're not alone, and there are people who want to help. Would you like me to help you find resources?"

// FallbackReply is returned when an internal failure prevents processing a
// turn. Session state is left untouched.
const FallbackReply = "I'm having trouble processing that right now. " +
	"Please try again, and remember that I'm here to listen and support you."

const (
	replyGreetingDefault = "Hi! I'm here to listen and support you. How are you feeling today?"

	replyGreetingNegative = "Hi. I can sense you might be going through a tough time. " +
		"I'm here to listen. What's been on your mind?"

	replyCheckingInNegative = "I can hear that you're going through a difficult time. " +
		"It takes courage to share these feelings. Can you tell me more about what's been troubling you?"

	replyCheckingInPositive = "It's good to hear that you're doing okay. " +
		"Is there anything specific you'd like to talk about or work through today?"

	replyExploringFeelings = "Thank you for sharing that with me. It sounds like you're dealing with a lot right now. " +
		"How long have you been feeling this way?"

	replySupportIntense = "I can really feel the intensity of what you're experiencing. " +
		"Remember, it's okay to feel this way, and you're not alone. " +
		"Would you like to explore some coping strategies that might help?"

	replySupportDefault = "I appreciate you opening up about this. " +
		"Sometimes talking about our feelings can help us process them. " +
		"What would be most helpful for you right now?"

	replyCopingStrategies = "Here are some strategies that might help: deep breathing, going for a walk, " +
		"or talking to someone you trust. Is there anything specific you'd like to try?"

	replyDefault = "I'm here to listen and support you. " +
		"Can you tell me more about what you're experiencing or what you'd like to work through?"
)
