package relevance

import (
	"fmt"
	"regexp"
	"strings"
)

// TopicSpec is the configurable form of a topic cluster, as it appears in
// the config file under relevance.topics.
type TopicSpec struct {
	Name         string   `mapstructure:"name"`
	Keywords     []string `mapstructure:"keywords"`
	TitlePattern string   `mapstructure:"title_pattern"`
	ContentTerms []string `mapstructure:"content_terms"`
}

// Topic is a compiled topic cluster. A query mentioning any keyword earns
// matching chapters the title and content bonuses.
type Topic struct {
	Name         string
	Keywords     []string       // lowercase
	Title        *regexp.Regexp // nil = no title bonus
	ContentTerms []string       // lowercase; all must appear in the body
}

// CompileTopics validates specs and compiles title patterns
// case-insensitively.
func CompileTopics(specs []TopicSpec) ([]Topic, error) {
	topics := make([]Topic, 0, len(specs))
	for _, spec := range specs {
		if len(spec.Keywords) == 0 {
			return nil, fmt.Errorf("topic %q: no keywords", spec.Name)
		}
		t := Topic{
			Name:         spec.Name,
			Keywords:     lowerAll(spec.Keywords),
			ContentTerms: lowerAll(spec.ContentTerms),
		}
		if spec.TitlePattern != "" {
			re, err := regexp.Compile("(?i)" + spec.TitlePattern)
			if err != nil {
				return nil, fmt.Errorf("topic %q: invalid title pattern: %w", spec.Name, err)
			}
			t.Title = re
		}
		topics = append(topics, t)
	}
	return topics, nil
}

// DefaultTopicSpecs is the curated table shipped with the coach
func DefaultTopicSpecs() []TopicSpec {
	return []TopicSpec{
		{
			Name:         "delegation",
			Keywords:     []string{"delegate", "delegating", "delegation", "monkey", "hand off"},
			TitlePattern: "deleg|monkey",
			ContentTerms: []string{"monkey", "back"},
		},
		{
			Name:         "feedback",
			Keywords:     []string{"feedback", "criticism", "praise", "review"},
			TitlePattern: "feedback|praise|critic",
			ContentTerms: []string{"feedback", "specific"},
		},
		{
			Name:         "one-on-ones",
			Keywords:     []string{"1:1", "one-on-one", "one on one", "1-on-1"},
			TitlePattern: `one[- ]on[- ]one|1[:-]1|1-on-1`,
			ContentTerms: []string{"agenda", "listen"},
		},
		{
			Name:         "meetings",
			Keywords:     []string{"meeting", "agenda", "standup"},
			TitlePattern: "meeting",
			ContentTerms: []string{"agenda", "decision"},
		},
		{
			Name:         "time-management",
			Keywords:     []string{"time management", "prioritize", "priorities", "procrastinat", "overwhelmed"},
			TitlePattern: "time|priorit|eisenhower",
			ContentTerms: []string{"urgent", "important"},
		},
		{
			Name:         "conflict",
			Keywords:     []string{"conflict", "difficult conversation", "disagree", "tension"},
			TitlePattern: "conflict|difficult conversation",
			ContentTerms: []string{"conflict", "listen"},
		},
		{
			Name:         "motivation",
			Keywords:     []string{"motivate", "motivation", "engagement", "morale"},
			TitlePattern: "motivat|drive|engag",
			ContentTerms: []string{"autonomy", "purpose"},
		},
		{
			Name:         "hiring",
			Keywords:     []string{"hire", "hiring", "interview", "recruit"},
			TitlePattern: "hir|interview|recruit",
			ContentTerms: []string{"candidate", "interview"},
		},
		{
			Name:         "decisions",
			Keywords:     []string{"decide", "decision", "trade-off", "tradeoff"},
			TitlePattern: "decision|decid",
			ContentTerms: []string{"decision", "reversible"},
		},
	}
}

// DefaultTopics returns the compiled default table
func DefaultTopics() []Topic {
	topics, err := CompileTopics(DefaultTopicSpecs())
	if err != nil {
		panic(err) // static table
	}
	return topics
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
