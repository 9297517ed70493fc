package usecase

// ComposePrompt exposes prompt composition for tests
var ComposePrompt = composePrompt

// DefaultReflectionQuestion exposes the fallback question for tests
const DefaultReflectionQuestion = defaultReflectionQuestion
