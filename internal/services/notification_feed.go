package services

import (
	"sort"
	"time"
)

// NotificationBucket names a recency group.
type NotificationBucket string

const (
	BucketNew          NotificationBucket = "new"
	BucketEarlierToday NotificationBucket = "earlier_today"
	BucketYesterday    NotificationBucket = "yesterday"
	BucketLast7Days    NotificationBucket = "last_7_days"
	BucketOlder        NotificationBucket = "older"
)

// bucketOrder is the order groups are presented in.
var bucketOrder = []NotificationBucket{BucketNew, BucketEarlierToday, BucketYesterday, BucketLast7Days, BucketOlder}

var bucketLabels = map[NotificationBucket]string{
	BucketNew:          "New",
	BucketEarlierToday: "Earlier today",
	BucketYesterday:    "Yesterday",
	BucketLast7Days:    "Last 7 days",
	BucketOlder:        "Older",
}

// NotificationGroup is one recency bucket, newest first.
type NotificationGroup struct {
	Key   NotificationBucket `json:"key"`
	Label string             `json:"label"`
	Items []NotificationDTO  `json:"items"`
}

// NotificationFeed is the grouped notification view for one user.
type NotificationFeed struct {
	Groups      []NotificationGroup `json:"groups"`
	Total       int                 `json:"total"`
	UnreadCount int64               `json:"unread_count"`
}

// GroupByRecency partitions items into the fixed bucket order. Day
// boundaries are midnights in loc. Every item lands in exactly one bucket:
//
//	new            unread, created today
//	earlier_today  read, created today
//	yesterday      created yesterday
//	last_7_days    created within the six days before yesterday
//	older          everything else
//
// Timestamps after now count as today.
func GroupByRecency(items []NotificationDTO, now time.Time, loc *time.Location) []NotificationGroup {
	if loc == nil {
		loc = time.UTC
	}

	local := now.In(loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	yesterday := today.AddDate(0, 0, -1)
	weekAgo := today.AddDate(0, 0, -7)

	buckets := make(map[NotificationBucket][]NotificationDTO, len(bucketOrder))
	for _, item := range items {
		created := item.CreatedAt
		var bucket NotificationBucket
		switch {
		case !created.Before(today) && !item.Read:
			bucket = BucketNew
		case !created.Before(today):
			bucket = BucketEarlierToday
		case !created.Before(yesterday):
			bucket = BucketYesterday
		case !created.Before(weekAgo):
			bucket = BucketLast7Days
		default:
			bucket = BucketOlder
		}
		buckets[bucket] = append(buckets[bucket], item)
	}

	groups := make([]NotificationGroup, 0, len(bucketOrder))
	for _, bucket := range bucketOrder {
		entries := buckets[bucket]
		if entries == nil {
			entries = []NotificationDTO{}
		}
		sort.SliceStable(entries, func(i, j int) bool {
			if entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
				return entries[i].ID > entries[j].ID
			}
			return entries[i].CreatedAt.After(entries[j].CreatedAt)
		})
		groups = append(groups, NotificationGroup{Key: bucket, Label: bucketLabels[bucket], Items: entries})
	}
	return groups
}
