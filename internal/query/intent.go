package query

import "regexp"

// Intent is the classified purpose of a natural-language query.
type Intent string

const (
	IntentFindFunction  Intent = "find_function"
	IntentFindClass     Intent = "find_class"
	IntentFindRelations Intent = "find_relations"
	IntentFindPath      Intent = "find_path"
	IntentStats         Intent = "stats"
	IntentUnknown       Intent = "unknown"
)

// Classification pairs an intent with how certain the classifier is
// about it, in [0,1].
type Classification struct {
	Intent     Intent  `json:"intent"`
	Confidence float64 `json:"confidence"`
}

type intentRule struct {
	intent   Intent
	patterns []*regexp.Regexp
}

// intentRules is evaluated in order; the first matching rule wins.
// More specific intents come before broader ones so "path between X
// and Y" is not swallowed by the relations rule.
var intentRules = []intentRule{
	{
		intent: IntentStats,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(stats|statistics|overview|summary)\b`),
			regexp.MustCompile(`(?i)\bhow many\b`),
			regexp.MustCompile(`(?i)\bcount\b`),
		},
	},
	{
		intent: IntentFindPath,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bpaths?\b`),
			regexp.MustCompile(`(?i)\bconnect(ed|ion|ions)?\b`),
			regexp.MustCompile(`(?i)\bbetween\b.+\band\b`),
			regexp.MustCompile(`(?i)\broutes?\b`),
		},
	},
	{
		intent: IntentFindRelations,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bcall(s|ed|ers?|ees?)?\b`),
			regexp.MustCompile(`(?i)\bdepend(s|ency|encies)?\b`),
			regexp.MustCompile(`(?i)\buse[sd]?\b`),
			regexp.MustCompile(`(?i)\bimport(s|ed)?\b`),
			regexp.MustCompile(`(?i)\breference[sd]?\b`),
			regexp.MustCompile(`(?i)\brelation(s|ships?)?\b`),
		},
	},
	{
		intent: IntentFindClass,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bclass(es)?\b`),
			regexp.MustCompile(`(?i)\bstructs?\b`),
			regexp.MustCompile(`(?i)\binterfaces?\b`),
			regexp.MustCompile(`(?i)\btypes?\b`),
			regexp.MustCompile(`(?i)\bmodels?\b`),
			regexp.MustCompile(`(?i)\bentit(y|ies)\b`),
		},
	},
	{
		intent: IntentFindFunction,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bfunctions?\b`),
			regexp.MustCompile(`(?i)\bfuncs?\b`),
			regexp.MustCompile(`(?i)\bmethods?\b`),
		},
	},
}

// ruleClassify matches the text against the fixed intent taxonomy.
// Matches score high; the unknown fallback scores low so callers can
// tell the two apart.
func ruleClassify(text string) Classification {
	var matched []Intent
	for _, rule := range intentRules {
		for _, pattern := range rule.patterns {
			if pattern.MatchString(text) {
				matched = append(matched, rule.intent)
				break
			}
		}
	}

	switch len(matched) {
	case 0:
		return Classification{Intent: IntentUnknown, Confidence: 0.3}
	case 1:
		return Classification{Intent: matched[0], Confidence: 0.85}
	default:
		// Several rules fired; table order decides, with lower but
		// still actionable confidence.
		return Classification{Intent: matched[0], Confidence: 0.7}
	}
}
