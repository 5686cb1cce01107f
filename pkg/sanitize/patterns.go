package sanitize

import "regexp"

// CompiledPattern is one appearance-descriptor rule: text the regex
// matches is replaced before a prompt reaches the video model.
type CompiledPattern struct {
	Name        string
	Regex       *regexp.Regexp
	Replacement string
	Description string
}

// anchorRegex matches phrasing that ties a subject to an uploaded
// reference image. Anchored spans are protected: patterns never rewrite
// inside them.
var anchorRegex = regexp.MustCompile(
	`(?i)the exact same [^.,;]+? from (?:Reference Image|Scene) \d+`)

// builtinPatterns covers the descriptor categories that cause the video
// model to invent a subject instead of using the reference image.
// Compiled once at package init.
var builtinPatterns = []*CompiledPattern{
	{
		Name: "facial_features",
		Regex: regexp.MustCompile(
			`(?i)\b(?:with\s+)?(?:piercing\s+|bright\s+|deep\s+)?` +
				`(?:blue|green|brown|hazel|gray|grey|amber|dark)\s+eyes\b[,]?\s?`),
		Replacement: "",
		Description: "eye color and shape descriptors",
	},
	{
		Name: "hair",
		Regex: regexp.MustCompile(
			`(?i)\b(?:with\s+)?(?:long|short|shoulder-length|curly|wavy|straight|flowing)?\s?` +
				`(?:blonde?|brunette|auburn|red|black|brown|gray|grey|silver|dark)\s+hair\b[,]?\s?`),
		Replacement: "",
		Description: "hair color, length, and texture descriptors",
	},
	{
		Name: "ethnicity",
		Regex: regexp.MustCompile(
			`(?i)\b(?:caucasian|asian|east asian|south asian|african[- ]american|hispanic|` +
				`latino|latina|middle[- ]eastern|scandinavian|mediterranean)\s+` +
				`(man|woman|person|male|female|model|couple)\b`),
		Replacement: "$1",
		Description: "ethnicity qualifiers on a subject noun",
	},
	{
		Name: "age",
		Regex: regexp.MustCompile(
			`(?i)(?:\b\d{2}[- ]year[- ]old\s+|\bin\s+(?:his|her|their)\s+(?:early\s+|mid[- ]|late\s+)?` +
				`(?:20s|30s|40s|50s|60s|twenties|thirties|forties|fifties)\b[,]?\s?)`),
		Replacement: "",
		Description: "age descriptors",
	},
	{
		Name: "body_build",
		Regex: regexp.MustCompile(
			`(?i)\b(?:slim|slender|athletic|muscular|toned|curvy|petite|lanky|stocky)\s+` +
				`(?:build|figure|frame|physique|body)\b[,]?\s?`),
		Replacement: "",
		Description: "body build descriptors",
	},
	{
		Name: "facial_structure",
		Regex: regexp.MustCompile(
			`(?i)\b(?:chiseled|sharp|high|prominent|defined)\s+` +
				`(?:jawline|cheekbones|features)\b[,]?\s?`),
		Replacement: "",
		Description: "facial structure descriptors",
	},
	{
		Name: "measurements",
		Regex: regexp.MustCompile(
			`(?i)(?:standing\s+)?\b(?:` +
				`\d+(?:\.\d+)?\s*(?:feet|foot|ft)(?:\s+\d{1,2}\s*(?:inches|inch|in))?(?:\s+tall)?\b|` +
				`\d{2,3}\s*(?:cm|centimet(?:er|re)s?)(?:\s+tall)?\b|` +
				`\d{2,3}\s*(?:kg|kilograms?|lbs?|pounds)\b|` +
				`\d\s*'\s*\d{1,2}(?:\s*(?:"|''))?(?:\s+tall)?` +
				`)[,]?\s?`),
		Replacement: "",
		Description: "explicit height and weight measurements of persons",
	},
	{
		Name: "skin",
		Regex: regexp.MustCompile(
			`(?i)\b(?:fair|pale|tan(?:ned)?|olive|dark|porcelain|glowing)\s+` +
				`(?:skin|complexion)\b[,]?\s?`),
		Replacement: "",
		Description: "skin tone descriptors",
	},
}
