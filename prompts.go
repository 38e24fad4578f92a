package aspectree

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"
	"text/template"
)

const (
	continueSystemPrompt = "You are thinking in a tree-of-thought manner. Answer only Yes or No."
	proposeSystemPrompt  = "You are an expert in analyzing questions from multiple perspectives."
	reflectSystemPrompt  = "You are thinking in a tree-of-thought manner with self-reflection."
	evaluateSystemPrompt = "You are evaluating the relevance of an aspect in a tree structure."
	narrateSystemPrompt  = "You are a professional analysis assistant, skilled at deeply understanding a topic and conducting comprehensive analysis. Remain objective and professional."
)

// continuePromptTemplate asks whether an aspect needs further breakdown.
const continuePromptTemplate = `Given the aspect: "{{.Content}}", decide whether it needs to be further broken down into more specific sub-aspects.

Consider:
1. Is this aspect specific enough?
2. Would further breakdown add value?
3. Is there enough depth in this direction?

Answer only "Yes" if it needs further breakdown, or "No" if it is already specific enough.
`

// proposePromptTemplate generates a batch of candidate sub-aspects.
const proposePromptTemplate = `Given the parent aspect: "{{.Content}}", generate EXACTLY {{.Count}} key sub-aspects that are:
1. Directly relevant to the parent aspect
2. Mutually exclusive
3. Collectively exhaustive
4. Clear and concise (preferably 2-4 words each)

Return only the list of {{.Count}} sub-aspects, one per line, without any additional text.

Example format:
Health Benefits
Cultural Impact
Taste Profile
`

// reflectPromptTemplate judges a freshly generated sibling batch as a whole.
const reflectPromptTemplate = `Given the parent aspect: "{{.Parent}}" and its potential sub-aspects:
{{range .Candidates}}- {{.}}
{{end}}
Please analyze these aspects considering:
1. Fairness: Are all perspectives fairly represented?
2. Diversity: Do the aspects cover different viewpoints?
3. Balance: Is there any bias or over-representation?
4. Relevance: Are all aspects directly relevant to the parent?

Provide your analysis in the following format:
REFLECTION: [Your detailed analysis]
FAIRNESS_SCORE: [0-10]
DIVERSITY_SCORE: [0-10]
RECOMMENDATION: [Keep/Modify/Prune]
MODIFIED_ASPECTS: [If recommending modification, provide at most {{.Count}} new aspects, one per line]
`

// evaluatePromptTemplate scores one node's relevance during pruning.
const evaluatePromptTemplate = `Original Question: "{{.Question}}"
Current Depth: {{.Depth}}

Complete Path from Root:
{{.Path}}

Parent Aspect: "{{.Parent}}"
Current Aspect: "{{.Content}}"

Sibling Aspects at this level:
{{range .Siblings}}- {{.}}
{{end}}
Please evaluate considering:
1. How relevant is this aspect to the original question? (0-10)
2. Does this aspect add meaningful value to the parent aspect? (Yes/No)
3. How does this aspect complement or differ from its siblings?
4. Is there any redundancy with existing aspects?
5. How well does this aspect fit into the overall path from root?

Provide your evaluation in the following format:
RELEVANCE_SCORE: [0-10]
ADDS_VALUE: [Yes/No]
COMPLEMENTARITY: [High/Medium/Low]
REDUNDANCY: [Yes/No]
PATH_COHERENCE: [High/Medium/Low]
JUSTIFICATION: [Brief explanation]
`

// narratePromptTemplate turns one root-to-leaf aspect path into a narrative
// answer fragment.
const narratePromptTemplate = `The question "{{.Question}}" was broken down along this chain of aspects:
{{.Path}}

Write a focused answer to the question through the lens of the final aspect in the chain. Make sure that your response:

Stays on the specific angle the chain narrows down to

Is written in clear and concise language

Directly addresses the requirements of the question

Please provide your answer.
`

var (
	tmplContinue = template.Must(template.New("continue").Parse(continuePromptTemplate))
	tmplPropose  = template.Must(template.New("propose").Parse(proposePromptTemplate))
	tmplReflect  = template.Must(template.New("reflect").Parse(reflectPromptTemplate))
	tmplEvaluate = template.Must(template.New("evaluate").Parse(evaluatePromptTemplate))
	tmplNarrate  = template.Must(template.New("narrate").Parse(narratePromptTemplate))
)

func renderTemplate(tmpl *template.Template, data any) (string, error) {
	var b bytes.Buffer
	if err := tmpl.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

// isYes reports whether an oracle reply affirms. Anything that does not
// start with "yes" counts as a no.
func isYes(raw string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(raw)), "yes")
}

var (
	keyLineRegex = regexp.MustCompile(`^([A-Z][A-Z_]*)\s*:\s*(.*)$`)
	numberRegex  = regexp.MustCompile(`-?\d+(?:\.\d+)?`)
	bulletRegex  = regexp.MustCompile(`^(?:[-*]|\d+[.)])\s+`)
)

// splitAspects turns free-form oracle output into a clean aspect list: one
// per line, trimmed, bullets and numbering stripped, blanks and bracketed
// placeholder text dropped.
func splitAspects(raw string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		trimmed = bulletRegex.ReplaceAllString(trimmed, "")
		trimmed = strings.TrimSpace(trimmed)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}

// reflectionVerdict is the decoded reflection response. An empty
// Recommendation means the oracle never produced a recognizable one.
type reflectionVerdict struct {
	Recommendation Decision
	Modified       []string
}

// parseReflection decodes the line-oriented KEY: value reflection response.
// Unknown and malformed lines are ignored. MODIFIED_ASPECTS may carry its
// aspects inline after the colon or on the following lines, up to the next
// key.
func parseReflection(raw string) reflectionVerdict {
	var v reflectionVerdict
	collectingModified := false
	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		if m := keyLineRegex.FindStringSubmatch(trimmed); m != nil {
			key, value := m[1], m[2]
			collectingModified = false
			switch key {
			case "RECOMMENDATION":
				switch {
				case strings.HasPrefix(strings.ToLower(value), "keep"):
					v.Recommendation = DecisionKeep
				case strings.HasPrefix(strings.ToLower(value), "modify"):
					v.Recommendation = DecisionModify
				case strings.HasPrefix(strings.ToLower(value), "prune"):
					v.Recommendation = DecisionPrune
				}
			case "MODIFIED_ASPECTS":
				collectingModified = true
				v.Modified = append(v.Modified, splitAspects(value)...)
			}
			continue
		}
		if collectingModified {
			v.Modified = append(v.Modified, splitAspects(trimmed)...)
		}
	}
	return v
}

// evaluation is the decoded pruning response. Every field has an explicit
// default: a missing score stays 0 and a missing ADDS_VALUE stays false (the
// pruner is fail-closed), while the qualitative tags default to their
// neutral values so they adjust nothing unless the oracle states otherwise.
type evaluation struct {
	Score           float64
	AddsValue       bool
	Complementarity string
	Redundancy      bool
	PathCoherence   string
}

func parseEvaluation(raw string) evaluation {
	ev := evaluation{Complementarity: "Medium", PathCoherence: "Medium"}
	for _, line := range strings.Split(raw, "\n") {
		m := keyLineRegex.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		key, value := m[1], m[2]
		switch key {
		case "RELEVANCE_SCORE":
			if num := numberRegex.FindString(value); num != "" {
				if score, err := strconv.ParseFloat(num, 64); err == nil {
					ev.Score = score
				}
			}
		case "ADDS_VALUE":
			ev.AddsValue = isYes(value)
		case "COMPLEMENTARITY":
			ev.Complementarity = parseLevel(value, ev.Complementarity)
		case "REDUNDANCY":
			ev.Redundancy = isYes(value)
		case "PATH_COHERENCE":
			ev.PathCoherence = parseLevel(value, ev.PathCoherence)
		}
	}
	return ev
}

// parseLevel normalizes a High/Medium/Low answer, keeping the fallback when
// the value matches none of them.
func parseLevel(raw string, fallback string) string {
	switch {
	case strings.HasPrefix(strings.ToLower(strings.TrimSpace(raw)), "high"):
		return "High"
	case strings.HasPrefix(strings.ToLower(strings.TrimSpace(raw)), "medium"):
		return "Medium"
	case strings.HasPrefix(strings.ToLower(strings.TrimSpace(raw)), "low"):
		return "Low"
	}
	return fallback
}
