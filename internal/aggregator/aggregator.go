// Package aggregator rolls the News Section of many summaries up into
// per-player mention and sentiment counts.
package aggregator

import (
	"bufio"
	"regexp"
	"sort"
	"strings"
)

// NewsItem is one bullet of a summary's News Section.
type NewsItem struct {
	Subject   string `json:"subject" yaml:"subject"`
	News      string `json:"news" yaml:"news"`
	Sentiment string `json:"sentiment" yaml:"sentiment"`
}

type Insight struct {
	Episodes         int                       `json:"episodes" yaml:"episodes"`
	MentionCounts    map[string]int            `json:"mention_counts" yaml:"mention_counts"`
	SentimentCounts  map[string]map[string]int `json:"sentiment_counts" yaml:"sentiment_counts"`
	MostMentioned    []string                  `json:"most_mentioned" yaml:"most_mentioned"`
	NetSentimentRate map[string]float64        `json:"net_sentiment_rate" yaml:"net_sentiment_rate"`
}

var reField = regexp.MustCompile(`\*\*(Player/Team|News|Sentiment)\*\*:\s*(.*)$`)

// ParseNews pulls the items out of the "## News Section" of a Markdown
// summary. Fields may sit on one bullet or on nested bullets.
func ParseNews(summary string) []NewsItem {
	var items []NewsItem
	inNews := false
	sc := bufio.NewScanner(strings.NewReader(summary))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, "## ") {
			inNews = strings.EqualFold(strings.TrimSpace(line[3:]), "News Section")
			continue
		}
		if !inNews {
			continue
		}
		// a single line can carry several fields separated by " - "
		for _, part := range strings.Split(line, " - ") {
			m := reField.FindStringSubmatch(part)
			if m == nil {
				continue
			}
			value := strings.TrimSpace(m[2])
			switch m[1] {
			case "Player/Team":
				items = append(items, NewsItem{Subject: value})
			case "News":
				if len(items) > 0 {
					items[len(items)-1].News = value
				}
			case "Sentiment":
				if len(items) > 0 {
					items[len(items)-1].Sentiment = normalizeSentiment(value)
				}
			}
		}
	}
	return items
}

func normalizeSentiment(s string) string {
	l := strings.ToLower(s)
	switch {
	case strings.HasPrefix(l, "pos"):
		return "positive"
	case strings.HasPrefix(l, "neg"):
		return "negative"
	default:
		return "neutral"
	}
}

// Aggregate counts how often each subject shows up in the news across the
// summaries and how it was received.
func Aggregate(summaries []string) Insight {
	mentions := map[string]int{}
	sentiments := map[string]map[string]int{}
	for _, s := range summaries {
		for _, item := range ParseNews(s) {
			if item.Subject == "" {
				continue
			}
			mentions[item.Subject]++
			if sentiments[item.Subject] == nil {
				sentiments[item.Subject] = map[string]int{}
			}
			sentiments[item.Subject][item.Sentiment]++
		}
	}

	net := map[string]float64{}
	for subject, total := range mentions {
		c := sentiments[subject]
		net[subject] = float64(c["positive"]-c["negative"]) / float64(total)
	}

	ranked := make([]string, 0, len(mentions))
	for subject := range mentions {
		ranked = append(ranked, subject)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if mentions[ranked[i]] != mentions[ranked[j]] {
			return mentions[ranked[i]] > mentions[ranked[j]]
		}
		return ranked[i] < ranked[j]
	})
	if len(ranked) > 10 {
		ranked = ranked[:10]
	}

	return Insight{
		Episodes:         len(summaries),
		MentionCounts:    mentions,
		SentimentCounts:  sentiments,
		MostMentioned:    ranked,
		NetSentimentRate: net,
	}
}
