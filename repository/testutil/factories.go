package testutil

import (
	"tonflip/domain/entities"
)

// CreateTestProfile returns an unsaved profile with the default starting balance
func CreateTestProfile(id, username string) *entities.Profile {
	return &entities.Profile{
		ID:           id,
		Username:     username,
		FirstName:    username,
		Points:       200,
		ReferralCode: "code_" + id,
	}
}

// CreateTestProfileWithPoints returns an unsaved profile holding points
func CreateTestProfileWithPoints(id, username string, points int64) *entities.Profile {
	profile := CreateTestProfile(id, username)
	profile.Points = points
	return profile
}

// CreateReferredTestProfile returns an unsaved profile referred through code
func CreateReferredTestProfile(id, username, code string) *entities.Profile {
	profile := CreateTestProfile(id, username)
	profile.ReferredBy = &code
	return profile
}

// CreateTestPointsHistory returns an unsaved ledger entry
func CreateTestPointsHistory(profileID string, transactionType entities.TransactionType) *entities.PointsHistory {
	return &entities.PointsHistory{
		ProfileID:       profileID,
		PointsBefore:    200,
		PointsAfter:     300,
		ChangeAmount:    100,
		TransactionType: transactionType,
		Metadata: map[string]any{
			"test": true,
		},
	}
}
