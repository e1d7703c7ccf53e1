package models

type User struct {
	Id              string
	Username        string
	Email           string
	Provider        string
	ProviderId      string
	Created         int64
	EncryptionSetup bool
}

// KeyRecord holds the client-generated key material for one user.
// All blobs are opaque to the server; no cryptography happens here.
type KeyRecord struct {
	UserId              string
	Salt                string
	EncryptedPrivateKey string
	PublicKey           string
	PublicKeyId         string
	RecoveryEnabled     bool
	RecoveryMethods     []string
	Created             int64
}

// PublicKeyInfo is the projection of a KeyRecord safe to hand to
// anyone other than the owner.
type PublicKeyInfo struct {
	PublicKey   string `json:"publicKey"`
	PublicKeyId string `json:"publicKeyId"`
}

type ItemType string

const (
	ItemTypeJournal ItemType = "journal"
	ItemTypeGoal    ItemType = "goal"
	ItemTypeOther   ItemType = "other"
)

type ShareGrant struct {
	Id           string   `json:"id"`
	OwnerId      string   `json:"ownerId"`
	RecipientId  string   `json:"recipientId"`
	ItemType     ItemType `json:"itemType"`
	ItemId       string   `json:"itemId"`
	EncryptedKey string   `json:"encryptedKey"`
	ShareType    string   `json:"shareType"`
	Permissions  []string `json:"permissions"`
	ExpiresAt    int64    `json:"expiresAt,omitempty"` // 0 = never expires
	MaxAccesses  int      `json:"maxAccesses,omitempty"`
	AccessCount  int      `json:"accessCount"`
	Active       bool     `json:"active"`
	Created      int64    `json:"created"`
	RevokedAt    int64    `json:"revokedAt,omitempty"`
	RevokedBy    string   `json:"revokedBy,omitempty"`
}

// Expired reports whether the grant is past its expiration at the
// given unix time. Stored rows are never auto-expired; this is a
// read-time view only.
func (g ShareGrant) Expired(now int64) bool {
	return g.ExpiresAt > 0 && g.ExpiresAt <= now
}

// AccessExhausted reports whether the grant has used up its allowed
// accesses.
func (g ShareGrant) AccessExhausted() bool {
	return g.MaxAccesses > 0 && g.AccessCount >= g.MaxAccesses
}

type JournalEntry struct {
	Id         string   `json:"id"`
	UserId     string   `json:"userId"`
	Title      string   `json:"title,omitempty"`
	Content    string   `json:"content"`
	Encrypted  bool     `json:"encrypted"`
	WordCount  int      `json:"wordCount"`
	EntryDay   string   `json:"entryDay"` // YYYY-MM-DD
	Created    int64    `json:"created"`
	Updated    int64    `json:"updated"`
	SharedWith []string `json:"sharedWith,omitempty"`
}

type Habit struct {
	Id       string `json:"id"`
	UserId   string `json:"userId"`
	Name     string `json:"name"`
	Schedule string `json:"schedule,omitempty"` // e.g. "daily", "weekdays"
	Created  int64  `json:"created"`
	Archived bool   `json:"archived"`
}

type HabitCheckIn struct {
	HabitId string `json:"habitId"`
	UserId  string `json:"userId"`
	Day     string `json:"day"` // YYYY-MM-DD
	Note    string `json:"note,omitempty"`
	Created int64  `json:"created"`
}

type Goal struct {
	Id         string   `json:"id"`
	UserId     string   `json:"userId"`
	Title      string   `json:"title"`
	Target     int      `json:"target"`
	Progress   int      `json:"progress"`
	Completed  bool     `json:"completed"`
	DueDay     string   `json:"dueDay,omitempty"` // YYYY-MM-DD
	Created    int64    `json:"created"`
	Updated    int64    `json:"updated"`
	SharedWith []string `json:"sharedWith,omitempty"`
}

type StatsKind string

const (
	StatsJournal StatsKind = "journal"
	StatsHabit   StatsKind = "habit"
	StatsGoal    StatsKind = "goal"
)

// Stats is the denormalized per-user per-kind aggregate. It is a
// best-effort derived view: updates are not transactional with the
// primary entity writes and may drift under failure.
type Stats struct {
	UserId        string    `json:"userId"`
	Kind          StatsKind `json:"kind"`
	TotalCount    int       `json:"totalCount"`
	TotalWords    int       `json:"totalWords,omitempty"`
	AvgWords      float64   `json:"avgWords,omitempty"`
	CurrentStreak int       `json:"currentStreak"`
	LongestStreak int       `json:"longestStreak"`
	LastEventDay  string    `json:"lastEventDay,omitempty"` // YYYY-MM-DD
	Updated       int64     `json:"updated"`
}
