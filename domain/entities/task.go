package entities

import "time"

// TaskID identifies a rewardable task
type TaskID string

const (
	TaskBuyPoints    TaskID = "buy_points"
	TaskDailyLogin   TaskID = "daily_login"
	TaskDailyBet     TaskID = "daily_bet"
	TaskFollowX      TaskID = "follow_x"
	TaskRetweet      TaskID = "retweet"
	TaskJoinTelegram TaskID = "join_telegram"
	TaskFollowTikTok TaskID = "follow_tiktok"
	TaskWatchTikTok  TaskID = "watch_tiktok"
)

// TaskType drives how a task is completed
type TaskType string

const (
	TaskTypeBuyPoints   TaskType = "buy_points"
	TaskTypeDailyLogin  TaskType = "daily_login"
	TaskTypeDailyBet    TaskType = "daily_bet"
	TaskTypeSocialMedia TaskType = "social_media"
)

// TaskCategory groups tasks on the board
type TaskCategory string

const (
	TaskCategoryDaily  TaskCategory = "daily"
	TaskCategorySocial TaskCategory = "social"
)

// TaskCooldown is the rolling window in which a task can be claimed once
const TaskCooldown = 24 * time.Hour

// TaskDefinition is the static description of a task
type TaskDefinition struct {
	ID       TaskID
	Name     string
	Type     TaskType
	Category TaskCategory
	Reward   int64
	Link     string
}

// ClaimableDirectly reports whether the generic claim operation may complete the task.
// Point purchases are only completed by a verified on-chain transfer.
func (d TaskDefinition) ClaimableDirectly() bool {
	return d.Type != TaskTypeBuyPoints
}

var taskDefinitions = []TaskDefinition{
	{ID: TaskBuyPoints, Name: "Buy Points", Type: TaskTypeBuyPoints, Category: TaskCategoryDaily, Reward: 500},
	{ID: TaskDailyLogin, Name: "Daily Login", Type: TaskTypeDailyLogin, Category: TaskCategoryDaily, Reward: 100},
	{ID: TaskDailyBet, Name: "Place a Bet", Type: TaskTypeDailyBet, Category: TaskCategoryDaily, Reward: 150},
	{ID: TaskFollowX, Name: "Follow on X", Type: TaskTypeSocialMedia, Category: TaskCategorySocial, Reward: 200, Link: "https://x.com/TONorTAILS"},
	{ID: TaskRetweet, Name: "Retweet this Tweet", Type: TaskTypeSocialMedia, Category: TaskCategorySocial, Reward: 100, Link: "https://x.com/TONorTAILS/"},
	{ID: TaskJoinTelegram, Name: "Join Telegram Group", Type: TaskTypeSocialMedia, Category: TaskCategorySocial, Reward: 200, Link: "https://t.me/TONorTAILS"},
	{ID: TaskFollowTikTok, Name: "Follow on TikTok", Type: TaskTypeSocialMedia, Category: TaskCategorySocial, Reward: 200, Link: "https://www.tiktok.com/@TONorTAILS"},
	{ID: TaskWatchTikTok, Name: "Watch TikTok Video", Type: TaskTypeSocialMedia, Category: TaskCategorySocial, Reward: 100, Link: "https://www.tiktok.com/@TONorTAILS/video/1234567890"},
}

// TaskDefinitions returns every task in board order
func TaskDefinitions() []TaskDefinition {
	out := make([]TaskDefinition, len(taskDefinitions))
	copy(out, taskDefinitions)
	return out
}

// LookupTask finds a task definition by id
func LookupTask(id TaskID) (TaskDefinition, bool) {
	for _, def := range taskDefinitions {
		if def.ID == id {
			return def, true
		}
	}
	return TaskDefinition{}, false
}

// TaskStatus is a task definition joined with the caller's progress
type TaskStatus struct {
	TaskDefinition
	Completed     bool
	LastClaimedAt *time.Time
	PurchaseCount int  // buy_points only
	HasBetToday   bool // daily_bet only
}

// TaskClaimResult is returned after a successful claim
type TaskClaimResult struct {
	TaskID    TaskID
	Reward    int64
	NewPoints int64
	ClaimedAt time.Time
}
