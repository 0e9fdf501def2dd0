package enrich

import "fmt"

// systemPrompt pins the model to the provided text. The conservative
// rules are load-bearing: without them the model pads summaries with
// background knowledge the abstract never states.
const systemPrompt = `You are analyzing a scientific article. You must ONLY use information that is explicitly stated in the title and abstract provided.

CRITICAL RULES:
- If information is not explicitly mentioned, respond with 'Unknown'
- Do NOT infer, assume, or extrapolate beyond what is written
- Do NOT use your general medical knowledge to fill in gaps
- Do NOT make educated guesses
- For categories, if unclear choose the most conservative option
- For each field, if you cannot determine the answer with 100% confidence from the text provided, mark it as 'Unknown' or 'Not specified'

Always respond with valid JSON and nothing else.`

const userPromptTemplate = `Analyze ONLY the title and abstract below. Do not use any outside knowledge.

Title: %s
Journal: %s
Abstract: %s

Based STRICTLY on the text above, generate the following in English:

1. "summary": A short summary (2-3 sentences) using ONLY facts stated in the abstract. Do not add context or background not present in the text.
2. "importance": Why is this important based on what the authors explicitly state? (1-2 sentences). If the abstract does not state importance, write "Not specified in abstract".
3. "news_value": A score from 1-10 (integer). ONLY score highly (7+) if the abstract explicitly reports significant/novel results. If the abstract is vague or results are unclear, score conservatively (1-4). 10 = abstract explicitly describes paradigm-shifting results; 1 = routine/incremental or unclear findings.
4. "subspecialty": Choose exactly one from: "Oncology", "Vascular", "Spine", "Functional", "Trauma", "Pediatric", "Skull base", "General". Choose "General" if the subspecialty is not clearly identifiable from the title and abstract.
5. "article_type": Choose exactly one from: "Clinical trial", "Case report", "Review", "Technical note", "Outcomes study", "Basic research". Choose based on what the abstract explicitly describes (e.g. "randomized trial", "case series", "systematic review"). If unclear, choose "Outcomes study" as default.
6. "clinical_relevance": Choose exactly one from: "Practice-changing", "Important update", "Background knowledge", "Research only". Use "Practice-changing" ONLY if the abstract explicitly states results that would change clinical practice. Default to "Background knowledge" if uncertain.

Respond ONLY with JSON in this exact format:
{"summary": "...", "importance": "...", "news_value": N, "subspecialty": "...", "article_type": "...", "clinical_relevance": "..."}`

// userPrompt renders the per-article prompt.
func userPrompt(title, journal, abstract string) string {
	return fmt.Sprintf(userPromptTemplate, title, journal, abstract)
}
