package models

import "time"

// IdeaCounts are the batch sizes a user may ask for.
var IdeaCounts = []int{3, 6, 9, 12}

const DefaultIdeaCount = 6

// TrendingTopics are offered on the landing view.
var TrendingTopics = []string{"SaaS", "EdTech", "Green Energy", "Web3"}

func ValidIdeaCount(n int) bool {
	for _, c := range IdeaCounts {
		if c == n {
			return true
		}
	}
	return false
}

// HistoryItem records one completed search
type HistoryItem struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Topic     string    `json:"topic"`
	IdeaCount int       `json:"ideaCount"`
	Timestamp time.Time `json:"timestamp"`
}

// NewHistoryItem creates a history entry stamped with the current time
func NewHistoryItem(sessionID, topic string, ideaCount int) *HistoryItem {
	return &HistoryItem{
		SessionID: sessionID,
		Topic:     topic,
		IdeaCount: ideaCount,
		Timestamp: time.Now(),
	}
}

// SavedIdea is an idea a user bookmarked from a result list.
type SavedIdea struct {
	Idea
	Topic   string    `json:"topic"`
	SavedBy string    `json:"savedBy"`
	SavedAt time.Time `json:"savedAt"`
}

func NewSavedIdea(idea Idea, topic, savedBy string) *SavedIdea {
	return &SavedIdea{
		Idea:    idea,
		Topic:   topic,
		SavedBy: savedBy,
		SavedAt: time.Now(),
	}
}
