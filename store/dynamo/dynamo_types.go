package dynamo

import (
	"strings"

	"github.com/vireoapp/vireo/models"
)

// Single-table layout:
//
//	USER#<id>  / PROFILE              user profile (GSI_UserEmail on Email)
//	USER#<id>  / KEYS                 encryption key record
//	USER#<id>  / ENTRY#<entryId>      journal entry
//	USER#<id>  / HABIT#<habitId>      habit
//	USER#<id>  / CHECKIN#<habitId>#<day>  habit check-in
//	USER#<id>  / GOAL#<goalId>        goal
//	USER#<id>  / STATS#<kind>         aggregate stats
//	SHARE#<id> / GRANT                share grant (GSI_ShareOwner, GSI_ShareRecipient)

const (
	skProfile       = "PROFILE"
	skKeys          = "KEYS"
	skGrant         = "GRANT"
	skEntryPrefix   = "ENTRY#"
	skHabitPrefix   = "HABIT#"
	skCheckInPrefix = "CHECKIN#"
	skGoalPrefix    = "GOAL#"
	skStatsPrefix   = "STATS#"
)

func userPK(userId string) string   { return "USER#" + userId }
func sharePK(shareId string) string { return "SHARE#" + shareId }

type dynamoUser struct {
	PK              string `dynamodbav:"PK"`
	SK              string `dynamodbav:"SK"`
	Id              string `dynamodbav:"Id"`
	Username        string `dynamodbav:"Username"`
	Email           string `dynamodbav:"Email"`
	Provider        string `dynamodbav:"Provider"`
	ProviderId      string `dynamodbav:"ProviderId"`
	Created         int64  `dynamodbav:"Created"`
	EncryptionSetup bool   `dynamodbav:"EncryptionSetup"`
}

func userToDynamo(u models.User) dynamoUser {
	return dynamoUser{
		PK:              userPK(u.Id),
		SK:              skProfile,
		Id:              u.Id,
		Username:        u.Username,
		Email:           u.Email,
		Provider:        u.Provider,
		ProviderId:      u.ProviderId,
		Created:         u.Created,
		EncryptionSetup: u.EncryptionSetup,
	}
}

func userFromDynamo(du dynamoUser) models.User {
	return models.User{
		Id:              du.Id,
		Username:        du.Username,
		Email:           du.Email,
		Provider:        du.Provider,
		ProviderId:      du.ProviderId,
		Created:         du.Created,
		EncryptionSetup: du.EncryptionSetup,
	}
}

type dynamoKeyRecord struct {
	PK                  string   `dynamodbav:"PK"`
	SK                  string   `dynamodbav:"SK"`
	Salt                string   `dynamodbav:"Salt"`
	EncryptedPrivateKey string   `dynamodbav:"EncryptedPrivateKey"`
	PublicKey           string   `dynamodbav:"PublicKey"`
	PublicKeyId         string   `dynamodbav:"PublicKeyId"`
	RecoveryEnabled     bool     `dynamodbav:"RecoveryEnabled"`
	RecoveryMethods     []string `dynamodbav:"RecoveryMethods,omitemptyelem"`
	Created             int64    `dynamodbav:"Created"`
}

func keyRecordToDynamo(k models.KeyRecord) dynamoKeyRecord {
	return dynamoKeyRecord{
		PK:                  userPK(k.UserId),
		SK:                  skKeys,
		Salt:                k.Salt,
		EncryptedPrivateKey: k.EncryptedPrivateKey,
		PublicKey:           k.PublicKey,
		PublicKeyId:         k.PublicKeyId,
		RecoveryEnabled:     k.RecoveryEnabled,
		RecoveryMethods:     k.RecoveryMethods,
		Created:             k.Created,
	}
}

func keyRecordFromDynamo(dk dynamoKeyRecord) models.KeyRecord {
	return models.KeyRecord{
		UserId:              strings.TrimPrefix(dk.PK, "USER#"),
		Salt:                dk.Salt,
		EncryptedPrivateKey: dk.EncryptedPrivateKey,
		PublicKey:           dk.PublicKey,
		PublicKeyId:         dk.PublicKeyId,
		RecoveryEnabled:     dk.RecoveryEnabled,
		RecoveryMethods:     dk.RecoveryMethods,
		Created:             dk.Created,
	}
}

type dynamoShare struct {
	PK           string   `dynamodbav:"PK"`
	SK           string   `dynamodbav:"SK"`
	OwnerId      string   `dynamodbav:"OwnerId"`
	RecipientId  string   `dynamodbav:"RecipientId"`
	ItemType     string   `dynamodbav:"ItemType"`
	ItemId       string   `dynamodbav:"ItemId"`
	EncryptedKey string   `dynamodbav:"EncryptedKey"`
	ShareType    string   `dynamodbav:"ShareType"`
	Permissions  []string `dynamodbav:"Permissions,omitemptyelem"`
	ExpiresAt    int64    `dynamodbav:"ExpiresAt"`
	MaxAccesses  int      `dynamodbav:"MaxAccesses"`
	AccessCount  int      `dynamodbav:"AccessCount"`
	Active       bool     `dynamodbav:"Active"`
	Created      int64    `dynamodbav:"Created"`
	RevokedAt    int64    `dynamodbav:"RevokedAt"`
	RevokedBy    string   `dynamodbav:"RevokedBy"`
}

func shareToDynamo(g models.ShareGrant) dynamoShare {
	return dynamoShare{
		PK:           sharePK(g.Id),
		SK:           skGrant,
		OwnerId:      g.OwnerId,
		RecipientId:  g.RecipientId,
		ItemType:     string(g.ItemType),
		ItemId:       g.ItemId,
		EncryptedKey: g.EncryptedKey,
		ShareType:    g.ShareType,
		Permissions:  g.Permissions,
		ExpiresAt:    g.ExpiresAt,
		MaxAccesses:  g.MaxAccesses,
		AccessCount:  g.AccessCount,
		Active:       g.Active,
		Created:      g.Created,
		RevokedAt:    g.RevokedAt,
		RevokedBy:    g.RevokedBy,
	}
}

func shareFromDynamo(ds dynamoShare) models.ShareGrant {
	return models.ShareGrant{
		Id:           strings.TrimPrefix(ds.PK, "SHARE#"),
		OwnerId:      ds.OwnerId,
		RecipientId:  ds.RecipientId,
		ItemType:     models.ItemType(ds.ItemType),
		ItemId:       ds.ItemId,
		EncryptedKey: ds.EncryptedKey,
		ShareType:    ds.ShareType,
		Permissions:  ds.Permissions,
		ExpiresAt:    ds.ExpiresAt,
		MaxAccesses:  ds.MaxAccesses,
		AccessCount:  ds.AccessCount,
		Active:       ds.Active,
		Created:      ds.Created,
		RevokedAt:    ds.RevokedAt,
		RevokedBy:    ds.RevokedBy,
	}
}

type dynamoJournalEntry struct {
	PK         string   `dynamodbav:"PK"`
	SK         string   `dynamodbav:"SK"`
	UserId     string   `dynamodbav:"UserId"`
	Title      string   `dynamodbav:"Title"`
	Content    string   `dynamodbav:"Content"`
	Encrypted  bool     `dynamodbav:"Encrypted"`
	WordCount  int      `dynamodbav:"WordCount"`
	EntryDay   string   `dynamodbav:"EntryDay"`
	Created    int64    `dynamodbav:"Created"`
	Updated    int64    `dynamodbav:"Updated"`
	SharedWith []string `dynamodbav:"SharedWith,omitemptyelem"`
}

func journalEntryToDynamo(e models.JournalEntry) dynamoJournalEntry {
	return dynamoJournalEntry{
		PK:         userPK(e.UserId),
		SK:         skEntryPrefix + e.Id,
		UserId:     e.UserId,
		Title:      e.Title,
		Content:    e.Content,
		Encrypted:  e.Encrypted,
		WordCount:  e.WordCount,
		EntryDay:   e.EntryDay,
		Created:    e.Created,
		Updated:    e.Updated,
		SharedWith: e.SharedWith,
	}
}

func journalEntryFromDynamo(de dynamoJournalEntry) models.JournalEntry {
	return models.JournalEntry{
		Id:         strings.TrimPrefix(de.SK, skEntryPrefix),
		UserId:     de.UserId,
		Title:      de.Title,
		Content:    de.Content,
		Encrypted:  de.Encrypted,
		WordCount:  de.WordCount,
		EntryDay:   de.EntryDay,
		Created:    de.Created,
		Updated:    de.Updated,
		SharedWith: de.SharedWith,
	}
}

type dynamoHabit struct {
	PK       string `dynamodbav:"PK"`
	SK       string `dynamodbav:"SK"`
	UserId   string `dynamodbav:"UserId"`
	Name     string `dynamodbav:"Name"`
	Schedule string `dynamodbav:"Schedule"`
	Created  int64  `dynamodbav:"Created"`
	Archived bool   `dynamodbav:"Archived"`
}

func habitToDynamo(h models.Habit) dynamoHabit {
	return dynamoHabit{
		PK:       userPK(h.UserId),
		SK:       skHabitPrefix + h.Id,
		UserId:   h.UserId,
		Name:     h.Name,
		Schedule: h.Schedule,
		Created:  h.Created,
		Archived: h.Archived,
	}
}

func habitFromDynamo(dh dynamoHabit) models.Habit {
	return models.Habit{
		Id:       strings.TrimPrefix(dh.SK, skHabitPrefix),
		UserId:   dh.UserId,
		Name:     dh.Name,
		Schedule: dh.Schedule,
		Created:  dh.Created,
		Archived: dh.Archived,
	}
}

type dynamoCheckIn struct {
	PK      string `dynamodbav:"PK"`
	SK      string `dynamodbav:"SK"`
	HabitId string `dynamodbav:"HabitId"`
	UserId  string `dynamodbav:"UserId"`
	Day     string `dynamodbav:"Day"`
	Note    string `dynamodbav:"Note"`
	Created int64  `dynamodbav:"Created"`
}

func checkInToDynamo(c models.HabitCheckIn) dynamoCheckIn {
	return dynamoCheckIn{
		PK:      userPK(c.UserId),
		SK:      skCheckInPrefix + c.HabitId + "#" + c.Day,
		HabitId: c.HabitId,
		UserId:  c.UserId,
		Day:     c.Day,
		Note:    c.Note,
		Created: c.Created,
	}
}

func checkInFromDynamo(dc dynamoCheckIn) models.HabitCheckIn {
	return models.HabitCheckIn{
		HabitId: dc.HabitId,
		UserId:  dc.UserId,
		Day:     dc.Day,
		Note:    dc.Note,
		Created: dc.Created,
	}
}

type dynamoGoal struct {
	PK         string   `dynamodbav:"PK"`
	SK         string   `dynamodbav:"SK"`
	UserId     string   `dynamodbav:"UserId"`
	Title      string   `dynamodbav:"Title"`
	Target     int      `dynamodbav:"Target"`
	Progress   int      `dynamodbav:"Progress"`
	Completed  bool     `dynamodbav:"Completed"`
	DueDay     string   `dynamodbav:"DueDay"`
	Created    int64    `dynamodbav:"Created"`
	Updated    int64    `dynamodbav:"Updated"`
	SharedWith []string `dynamodbav:"SharedWith,omitemptyelem"`
}

func goalToDynamo(g models.Goal) dynamoGoal {
	return dynamoGoal{
		PK:         userPK(g.UserId),
		SK:         skGoalPrefix + g.Id,
		UserId:     g.UserId,
		Title:      g.Title,
		Target:     g.Target,
		Progress:   g.Progress,
		Completed:  g.Completed,
		DueDay:     g.DueDay,
		Created:    g.Created,
		Updated:    g.Updated,
		SharedWith: g.SharedWith,
	}
}

func goalFromDynamo(dg dynamoGoal) models.Goal {
	return models.Goal{
		Id:         strings.TrimPrefix(dg.SK, skGoalPrefix),
		UserId:     dg.UserId,
		Title:      dg.Title,
		Target:     dg.Target,
		Progress:   dg.Progress,
		Completed:  dg.Completed,
		DueDay:     dg.DueDay,
		Created:    dg.Created,
		Updated:    dg.Updated,
		SharedWith: dg.SharedWith,
	}
}

type dynamoStats struct {
	PK            string  `dynamodbav:"PK"`
	SK            string  `dynamodbav:"SK"`
	Kind          string  `dynamodbav:"Kind"`
	TotalCount    int     `dynamodbav:"TotalCount"`
	TotalWords    int     `dynamodbav:"TotalWords"`
	AvgWords      float64 `dynamodbav:"AvgWords"`
	CurrentStreak int     `dynamodbav:"CurrentStreak"`
	LongestStreak int     `dynamodbav:"LongestStreak"`
	LastEventDay  string  `dynamodbav:"LastEventDay"`
	Updated       int64   `dynamodbav:"Updated"`
}

func statsToDynamo(s models.Stats) dynamoStats {
	return dynamoStats{
		PK:            userPK(s.UserId),
		SK:            skStatsPrefix + string(s.Kind),
		Kind:          string(s.Kind),
		TotalCount:    s.TotalCount,
		TotalWords:    s.TotalWords,
		AvgWords:      s.AvgWords,
		CurrentStreak: s.CurrentStreak,
		LongestStreak: s.LongestStreak,
		LastEventDay:  s.LastEventDay,
		Updated:       s.Updated,
	}
}

func statsFromDynamo(ds dynamoStats) models.Stats {
	return models.Stats{
		UserId:        strings.TrimPrefix(ds.PK, "USER#"),
		Kind:          models.StatsKind(ds.Kind),
		TotalCount:    ds.TotalCount,
		TotalWords:    ds.TotalWords,
		AvgWords:      ds.AvgWords,
		CurrentStreak: ds.CurrentStreak,
		LongestStreak: ds.LongestStreak,
		LastEventDay:  ds.LastEventDay,
		Updated:       ds.Updated,
	}
}
