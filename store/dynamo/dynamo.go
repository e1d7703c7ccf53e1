package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/gofrs/uuid/v5"

	"github.com/vireoapp/vireo/models"
	"github.com/vireoapp/vireo/store"
)

const (
	gsiShareOwner     = "GSI_ShareOwner"
	gsiShareRecipient = "GSI_ShareRecipient"
	gsiUserEmail      = "GSI_UserEmail"
)

type DynamoVireoStore struct {
	client    *dynamodb.Client
	tableName string
}

func NewDynamoVireoStore(ctx context.Context, devMode bool, dynamodbEndpoint string, tableName string) (*DynamoVireoStore, error) {
	client, err := newDynamoDBClient(context.Background(), devMode, dynamodbEndpoint)
	if err != nil {
		return nil, err
	}

	tables, err := getTables(client, ctx)
	if err != nil {
		return nil, err
	}

	foundTable := false
	for _, table := range tables {
		if table == tableName {
			foundTable = true
			break
		}
	}
	if !foundTable {
		return nil, fmt.Errorf("given table name '%s' not found in dynamodb", tableName)
	}

	return &DynamoVireoStore{client: client, tableName: tableName}, nil
}

// CreateUser upserts a profile. The user id is derived from the OAuth
// provider identity, so repeated logins resolve to the same item and
// the conditional put returns the existing profile.
func (dynamoStore *DynamoVireoStore) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	if user.Id == "" {
		user.Id = uuid.NewV5(uuid.NamespaceOID, user.Provider+"#"+user.ProviderId).String()
	}

	du := userToDynamo(user)
	du.Created = time.Now().Unix()
	du, _, err := ensureItem(dynamoStore, ctx, du)
	if err != nil {
		return models.User{}, err
	}

	return userFromDynamo(du), nil
}

func (dynamoStore *DynamoVireoStore) GetUser(ctx context.Context, userId string) (models.User, error) {
	du, err := getItem[dynamoUser](dynamoStore, ctx, userPK(userId), skProfile, false)
	if err != nil {
		return models.User{}, err
	}

	return userFromDynamo(du), nil
}

func (dynamoStore *DynamoVireoStore) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	users, err := queryAllByGSI[dynamoUser](dynamoStore, ctx, gsiUserEmail, "Email", email)
	if err != nil {
		return models.User{}, err
	}
	if len(users) == 0 {
		return models.User{}, store.ErrItemNotFound
	}

	return userFromDynamo(users[0]), nil
}

// DeleteUser removes the profile and every owned row under the user's
// partition (keys, entries, habits, check-ins, goals, stats).
func (dynamoStore *DynamoVireoStore) DeleteUser(ctx context.Context, userId string) error {
	return deleteAllByPK(dynamoStore, ctx, userPK(userId))
}

func (dynamoStore *DynamoVireoStore) SetUserEncryptionFlag(ctx context.Context, userId string, enabled bool) error {
	du := dynamoUser{PK: userPK(userId), SK: skProfile, EncryptionSetup: enabled}
	_, err := updateItem(dynamoStore, ctx, du, []string{"EncryptionSetup"})
	return err
}

func (dynamoStore *DynamoVireoStore) CreateKeyRecord(ctx context.Context, record models.KeyRecord) error {
	dk := keyRecordToDynamo(record)
	return createItem(dynamoStore, ctx, dk)
}

func (dynamoStore *DynamoVireoStore) GetKeyRecord(ctx context.Context, userId string) (models.KeyRecord, error) {
	dk, err := getItem[dynamoKeyRecord](dynamoStore, ctx, userPK(userId), skKeys, false)
	if err != nil {
		return models.KeyRecord{}, err
	}

	return keyRecordFromDynamo(dk), nil
}

// DeleteKeyRecord is idempotent: deleting an absent record succeeds.
func (dynamoStore *DynamoVireoStore) DeleteKeyRecord(ctx context.Context, userId string) error {
	return deleteItemIdempotent(dynamoStore, ctx, userPK(userId), skKeys)
}

func (dynamoStore *DynamoVireoStore) CreateShare(ctx context.Context, grant models.ShareGrant) error {
	return createItem(dynamoStore, ctx, shareToDynamo(grant))
}

func (dynamoStore *DynamoVireoStore) GetShare(ctx context.Context, shareId string) (models.ShareGrant, error) {
	ds, err := getItem[dynamoShare](dynamoStore, ctx, sharePK(shareId), skGrant, false)
	if err != nil {
		return models.ShareGrant{}, err
	}

	return shareFromDynamo(ds), nil
}

// RevokeShare flips Active to false in a single conditional update.
// The condition requires the grant to exist, be owned by ownerId, and
// still be active; a failed condition is indistinguishable from a
// missing item on purpose.
func (dynamoStore *DynamoVireoStore) RevokeShare(ctx context.Context, shareId string, ownerId string, revokedAt int64) error {
	_, err := dynamoStore.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(dynamoStore.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: sharePK(shareId)},
			"SK": &types.AttributeValueMemberS{Value: skGrant},
		},
		UpdateExpression: aws.String("SET Active = :inactive, RevokedAt = :at, RevokedBy = :by"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":inactive": &types.AttributeValueMemberBOOL{Value: false},
			":active":   &types.AttributeValueMemberBOOL{Value: true},
			":at":       &types.AttributeValueMemberN{Value: fmt.Sprint(revokedAt)},
			":by":       &types.AttributeValueMemberS{Value: ownerId},
			":owner":    &types.AttributeValueMemberS{Value: ownerId},
		},
		ConditionExpression: aws.String("attribute_exists(PK) AND OwnerId = :owner AND Active = :active"),
	})
	if err != nil {
		var cce *types.ConditionalCheckFailedException
		if errors.As(err, &cce) {
			return store.ErrConditionFailed
		}
		return fmt.Errorf("revoke failed: %w", err)
	}

	return nil
}

func (dynamoStore *DynamoVireoStore) ListSharesByOwner(ctx context.Context, ownerId string) ([]models.ShareGrant, error) {
	return dynamoStore.listSharesByGSI(ctx, gsiShareOwner, "OwnerId", ownerId)
}

func (dynamoStore *DynamoVireoStore) ListSharesByRecipient(ctx context.Context, recipientId string) ([]models.ShareGrant, error) {
	return dynamoStore.listSharesByGSI(ctx, gsiShareRecipient, "RecipientId", recipientId)
}

func (dynamoStore *DynamoVireoStore) listSharesByGSI(ctx context.Context, indexName string, pkField string, pkValue string) ([]models.ShareGrant, error) {
	dynamoShares, err := queryAllByGSI[dynamoShare](dynamoStore, ctx, indexName, pkField, pkValue)
	if err != nil {
		return nil, err
	}

	grants := make([]models.ShareGrant, 0, len(dynamoShares))
	for _, ds := range dynamoShares {
		grants = append(grants, shareFromDynamo(ds))
	}

	return grants, nil
}

// DeleteUserShares removes every grant where the user is owner or
// recipient. Non-atomic: a failure partway leaves the remainder in
// place for a later retry of the cascade message.
func (dynamoStore *DynamoVireoStore) DeleteUserShares(ctx context.Context, userId string) error {
	throttle := 50 * time.Millisecond

	if err := batchDeleteByGSIThrottled(dynamoStore, ctx, gsiShareOwner, "OwnerId", userId, throttle); err != nil {
		return fmt.Errorf("delete owned shares: %w", err)
	}
	if err := batchDeleteByGSIThrottled(dynamoStore, ctx, gsiShareRecipient, "RecipientId", userId, throttle); err != nil {
		return fmt.Errorf("delete received shares: %w", err)
	}

	return nil
}

func (dynamoStore *DynamoVireoStore) IncrementShareAccessCount(ctx context.Context, shareId string, count int) error {
	return incrementCounter(dynamoStore, ctx, sharePK(shareId), skGrant, "AccessCount", count)
}

func (dynamoStore *DynamoVireoStore) CreateJournalEntry(ctx context.Context, entry models.JournalEntry) error {
	return createItem(dynamoStore, ctx, journalEntryToDynamo(entry))
}

func (dynamoStore *DynamoVireoStore) GetJournalEntry(ctx context.Context, userId string, entryId string) (models.JournalEntry, error) {
	de, err := getItem[dynamoJournalEntry](dynamoStore, ctx, userPK(userId), skEntryPrefix+entryId, false)
	if err != nil {
		return models.JournalEntry{}, err
	}

	return journalEntryFromDynamo(de), nil
}

func (dynamoStore *DynamoVireoStore) UpdateJournalEntry(ctx context.Context, entry models.JournalEntry) (models.JournalEntry, error) {
	de, err := updateItem(dynamoStore, ctx, journalEntryToDynamo(entry),
		[]string{"Title", "Content", "Encrypted", "WordCount", "EntryDay", "Updated"})
	if err != nil {
		return models.JournalEntry{}, err
	}

	return journalEntryFromDynamo(de), nil
}

func (dynamoStore *DynamoVireoStore) DeleteJournalEntry(ctx context.Context, userId string, entryId string) error {
	return deleteItemWithCondition(dynamoStore, ctx, userPK(userId), skEntryPrefix+entryId, "UserId", userId)
}

func (dynamoStore *DynamoVireoStore) ListJournalEntries(ctx context.Context, userId string, limit int32) ([]models.JournalEntry, error) {
	// Entry ids are UUIDv7, so SK order is creation order; scan
	// backwards for newest first.
	dynamoEntries, err := queryAllByPKPrefix[dynamoJournalEntry](dynamoStore, ctx, userPK(userId), skEntryPrefix, false, limit)
	if err != nil {
		return nil, err
	}

	entries := make([]models.JournalEntry, 0, len(dynamoEntries))
	for _, de := range dynamoEntries {
		entries = append(entries, journalEntryFromDynamo(de))
	}

	return entries, nil
}

// SetItemSharedWith replaces the denormalized SharedWith list on a
// journal entry or goal.
func (dynamoStore *DynamoVireoStore) SetItemSharedWith(ctx context.Context, userId string, itemType models.ItemType, itemId string, sharedWith []string) error {
	var err error
	switch itemType {
	case models.ItemTypeJournal:
		de := dynamoJournalEntry{PK: userPK(userId), SK: skEntryPrefix + itemId, SharedWith: sharedWith}
		_, err = updateItem(dynamoStore, ctx, de, []string{"SharedWith"})
	case models.ItemTypeGoal:
		dg := dynamoGoal{PK: userPK(userId), SK: skGoalPrefix + itemId, SharedWith: sharedWith}
		_, err = updateItem(dynamoStore, ctx, dg, []string{"SharedWith"})
	default:
		// "other" items have no backing row to annotate
		return nil
	}
	return err
}

func (dynamoStore *DynamoVireoStore) CreateHabit(ctx context.Context, habit models.Habit) error {
	return createItem(dynamoStore, ctx, habitToDynamo(habit))
}

func (dynamoStore *DynamoVireoStore) GetHabit(ctx context.Context, userId string, habitId string) (models.Habit, error) {
	dh, err := getItem[dynamoHabit](dynamoStore, ctx, userPK(userId), skHabitPrefix+habitId, false)
	if err != nil {
		return models.Habit{}, err
	}

	return habitFromDynamo(dh), nil
}

func (dynamoStore *DynamoVireoStore) SetHabitArchived(ctx context.Context, userId string, habitId string, archived bool) error {
	dh := dynamoHabit{PK: userPK(userId), SK: skHabitPrefix + habitId, Archived: archived}
	_, err := updateItem(dynamoStore, ctx, dh, []string{"Archived"})
	return err
}

func (dynamoStore *DynamoVireoStore) DeleteHabit(ctx context.Context, userId string, habitId string) error {
	return deleteItemWithCondition(dynamoStore, ctx, userPK(userId), skHabitPrefix+habitId, "UserId", userId)
}

func (dynamoStore *DynamoVireoStore) ListHabits(ctx context.Context, userId string) ([]models.Habit, error) {
	dynamoHabits, err := queryAllByPKPrefix[dynamoHabit](dynamoStore, ctx, userPK(userId), skHabitPrefix, false, 0)
	if err != nil {
		return nil, err
	}

	habits := make([]models.Habit, 0, len(dynamoHabits))
	for _, dh := range dynamoHabits {
		habits = append(habits, habitFromDynamo(dh))
	}

	return habits, nil
}

// CreateHabitCheckIn is conditional on the (habit, day) pair being
// new; a duplicate check-in returns store.ErrItemExists.
func (dynamoStore *DynamoVireoStore) CreateHabitCheckIn(ctx context.Context, checkIn models.HabitCheckIn) error {
	return createItem(dynamoStore, ctx, checkInToDynamo(checkIn))
}

// DeleteHabitCheckIns removes every check-in row for one habit and
// reports how many it deleted.
func (dynamoStore *DynamoVireoStore) DeleteHabitCheckIns(ctx context.Context, userId string, habitId string) (int, error) {
	return deleteAllByPKPrefix(dynamoStore, ctx, userPK(userId), skCheckInPrefix+habitId+"#")
}

func (dynamoStore *DynamoVireoStore) ListHabitCheckIns(ctx context.Context, userId string, habitId string, limit int32) ([]models.HabitCheckIn, error) {
	dynamoCheckIns, err := queryAllByPKPrefix[dynamoCheckIn](dynamoStore, ctx, userPK(userId), skCheckInPrefix+habitId+"#", false, limit)
	if err != nil {
		return nil, err
	}

	checkIns := make([]models.HabitCheckIn, 0, len(dynamoCheckIns))
	for _, dc := range dynamoCheckIns {
		checkIns = append(checkIns, checkInFromDynamo(dc))
	}

	return checkIns, nil
}

func (dynamoStore *DynamoVireoStore) CreateGoal(ctx context.Context, goal models.Goal) error {
	return createItem(dynamoStore, ctx, goalToDynamo(goal))
}

func (dynamoStore *DynamoVireoStore) GetGoal(ctx context.Context, userId string, goalId string) (models.Goal, error) {
	dg, err := getItem[dynamoGoal](dynamoStore, ctx, userPK(userId), skGoalPrefix+goalId, false)
	if err != nil {
		return models.Goal{}, err
	}

	return goalFromDynamo(dg), nil
}

func (dynamoStore *DynamoVireoStore) UpdateGoal(ctx context.Context, goal models.Goal) (models.Goal, error) {
	dg, err := updateItem(dynamoStore, ctx, goalToDynamo(goal),
		[]string{"Title", "Target", "Progress", "Completed", "DueDay", "Updated"})
	if err != nil {
		return models.Goal{}, err
	}

	return goalFromDynamo(dg), nil
}

func (dynamoStore *DynamoVireoStore) DeleteGoal(ctx context.Context, userId string, goalId string) error {
	return deleteItemWithCondition(dynamoStore, ctx, userPK(userId), skGoalPrefix+goalId, "UserId", userId)
}

func (dynamoStore *DynamoVireoStore) ListGoals(ctx context.Context, userId string) ([]models.Goal, error) {
	dynamoGoals, err := queryAllByPKPrefix[dynamoGoal](dynamoStore, ctx, userPK(userId), skGoalPrefix, false, 0)
	if err != nil {
		return nil, err
	}

	goals := make([]models.Goal, 0, len(dynamoGoals))
	for _, dg := range dynamoGoals {
		goals = append(goals, goalFromDynamo(dg))
	}

	return goals, nil
}

func (dynamoStore *DynamoVireoStore) GetStats(ctx context.Context, userId string, kind models.StatsKind) (models.Stats, error) {
	ds, err := getItem[dynamoStats](dynamoStore, ctx, userPK(userId), skStatsPrefix+string(kind), true)
	if err != nil {
		return models.Stats{}, err
	}

	return statsFromDynamo(ds), nil
}

func (dynamoStore *DynamoVireoStore) PutStats(ctx context.Context, stats models.Stats) error {
	return putItem(dynamoStore, ctx, statsToDynamo(stats))
}
