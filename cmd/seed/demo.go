package main

import (
	"time"

	"voicepanels/internal/dataset"
)

func daysAgo(n int) *time.Time {
	t := time.Now().UTC().AddDate(0, 0, -n).Truncate(time.Hour)
	return &t
}

func score(v float64) *float64 { return &v }

func demoRows() []dataset.Row {
	return []dataset.Row{
		{
			PanelName: "Founders Q1", InterviewID: "demo-founders-1",
			ParticipantName: "Maya Chen", ParticipantCompany: "Loopline",
			CompletedAt: daysAgo(9), Sentiment: "positive",
			SentimentScore: score(0.84), QualityScore: score(8),
			Summary:    "Onboarding was fast and the pricing felt fair for a seed-stage team.",
			Topics:     []string{"onboarding", "pricing", "integrations"},
			PainPoints: []string{"no SSO on the starter plan"},
			Desires:    []string{"Slack integration"},
			KeyQuotes:  []string{"We were live in an afternoon.", "The price is fair for what we get."},
		},
		{
			PanelName: "Founders Q1", InterviewID: "demo-founders-2",
			ParticipantName: "Tom Okafor", ParticipantCompany: "Brightdesk",
			CompletedAt: daysAgo(6), Sentiment: "mixed",
			SentimentScore: score(0.55), QualityScore: score(7),
			Summary:    "Likes the product but the reporting export is slow and pricing tiers confuse the team.",
			Topics:     []string{"reporting", "pricing"},
			PainPoints: []string{"slow exports", "confusing pricing tiers"},
			Desires:    []string{"scheduled reports"},
			KeyQuotes:  []string{"Exports take forever on big accounts."},
		},
		{
			PanelName: "Founders Q1", InterviewID: "demo-founders-3",
			ParticipantName: "Priya Raman",
			CompletedAt:     daysAgo(2),
			Transcript: "Honestly I love the onboarding, it was great and easy. " +
				"The one thing that frustrates me is the price jump to the next tier. " +
				"I wish there was an API for our internal tools.",
		},
		{
			PanelName: "Enterprise Buyers", InterviewID: "demo-enterprise-1",
			ParticipantCompany: "Northwind Logistics",
			CompletedAt:        daysAgo(12), Sentiment: "negative",
			SentimentScore: score(0.22), QualityScore: score(6),
			Summary:    "Security review stalled on missing SSO and audit logs.",
			Topics:     []string{"security", "compliance", "integrations"},
			PainPoints: []string{"no SSO on the starter plan", "missing audit logs"},
			Desires:    []string{"SAML SSO", "audit log export"},
			KeyQuotes:  []string{"Our security team will not sign off without SAML."},
		},
		{
			PanelName: "Enterprise Buyers", InterviewID: "demo-enterprise-2",
			ParticipantName: "Luis Ortega", ParticipantCompany: "Helix Health",
			CompletedAt: daysAgo(4), Sentiment: "neutral",
			SentimentScore: score(0.5), QualityScore: score(9),
			Summary:    "Evaluating against two competitors; integrations are the deciding factor.",
			Topics:     []string{"integrations", "security", "pricing"},
			PainPoints: []string{"limited EHR integrations"},
			Desires:    []string{"Epic integration"},
			KeyQuotes:  []string{"Whoever integrates with Epic first wins this deal."},
		},
	}
}
