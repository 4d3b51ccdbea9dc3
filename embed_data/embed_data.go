package embed_data

import _ "embed"

//go:embed prompts/action_plan_prompt.tmpl
var ActionPlanPrompt string

//go:embed prompts/fix_context_prompt.tmpl
var FixContextPrompt string
