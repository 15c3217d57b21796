package config

// SampleConfigYAML is the annotated config written by "pyrev config init".
func SampleConfigYAML() string {
	return `# pyrev configuration
# Active provider (anthropic | openai | any OpenAI-compatible endpoint).
provider: anthropic

# Default model and limits, overridable per provider below.
model: ""
max_tokens: 8000
timeout: 120s

# Review policy.
# strictness: normal | harsh | strict
strictness: harsh
checks:
  security: true
  performance: true
  best_practices: true
# Budget for the diff portion of review prompts.
max_prompt_tokens: 80000

# Test generation.
# test_framework: pytest | unittest
test_framework: pytest
generate_docstrings: true
test_dir: tests

# Provider-specific settings. api_key values can also come from
# ANTHROPIC_API_KEY / OPENAI_API_KEY env vars.
providers:
  anthropic:
    api_key: ""
    model: "claude-sonnet-4-20250514"
  openai:
    api_key: ""
    model: "gpt-4o"
    # base_url: "https://api.openai.com/v1"  # override for proxies
`
}
