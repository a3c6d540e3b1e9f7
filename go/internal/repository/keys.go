package repository

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mcdev12/deadpool/go/internal/store"
)

// Key layout of the single entity table. Partitions: PLAYER#{id},
// PERSON#{id}, YEAR#{year}, NAME#{normalized}, PEOPLE (name index),
// MIGRATION#{from}_TO_{to}.
const (
	skDetails       = "DETAILS"
	skNameClaim     = "CLAIM"
	skMetadata      = "METADATA"
	peoplePartition = "PEOPLE"
)

func playerKey(playerID string) store.Key {
	return store.Key{PK: "PLAYER#" + playerID, SK: skDetails}
}

func personKey(personID string) store.Key {
	return store.Key{PK: "PERSON#" + personID, SK: skDetails}
}

func pickKey(playerID string, year int, personID string) store.Key {
	return store.Key{
		PK: "PLAYER#" + playerID,
		SK: fmt.Sprintf("PICK#%d#%s", year, personID),
	}
}

func pickPrefix(year int) string {
	return fmt.Sprintf("PICK#%d#", year)
}

// claimKey is the global uniqueness row for a (year, person) pair. The
// conditional write on this key is what makes draft commits exactly-once.
func claimKey(year int, personID string) store.Key {
	return store.Key{
		PK: yearPartition(year),
		SK: "CLAIM#" + personID,
	}
}

func orderKey(year, position int, playerID string) store.Key {
	return store.Key{
		PK: yearPartition(year),
		SK: fmt.Sprintf("ORDER#%02d#PLAYER#%s", position, playerID),
	}
}

func slotsKey(playerID string, year int) store.Key {
	return store.Key{
		PK: "PLAYER#" + playerID,
		SK: fmt.Sprintf("DRAFT_SLOTS#%d", year),
	}
}

// nameClaimKey serializes person creation per normalized name so that
// concurrent drafters proposing the same new name converge on one record.
func nameClaimKey(normalizedName string) store.Key {
	return store.Key{PK: "NAME#" + normalizedName, SK: skNameClaim}
}

// personIndexKey lists a person under the PEOPLE partition so the
// matcher can scan candidates by normalized-name prefix.
func personIndexKey(normalizedName, personID string) store.Key {
	return store.Key{
		PK: peoplePartition,
		SK: fmt.Sprintf("NAME#%s#%s", normalizedName, personID),
	}
}

func transitionKey(fromYear, toYear int) store.Key {
	return store.Key{
		PK: fmt.Sprintf("MIGRATION#%d_TO_%d", fromYear, toYear),
		SK: skMetadata,
	}
}

func yearPartition(year int) string {
	return "YEAR#" + strconv.Itoa(year)
}

// parseOrderSK extracts (position, playerID) from ORDER#{pos}#PLAYER#{id}.
func parseOrderSK(sk string) (int, string, error) {
	parts := strings.Split(sk, "#")
	if len(parts) != 4 || parts[0] != "ORDER" || parts[2] != "PLAYER" {
		return 0, "", fmt.Errorf("malformed draft order sort key %q", sk)
	}
	position, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, "", fmt.Errorf("malformed draft order position in %q: %w", sk, err)
	}
	return position, parts[3], nil
}

// parsePickSK extracts (year, personID) from PICK#{year}#{personID}.
func parsePickSK(sk string) (int, string, error) {
	parts := strings.SplitN(sk, "#", 3)
	if len(parts) != 3 || parts[0] != "PICK" {
		return 0, "", fmt.Errorf("malformed pick sort key %q", sk)
	}
	year, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, "", fmt.Errorf("malformed pick year in %q: %w", sk, err)
	}
	return year, parts[2], nil
}

// parsePersonIndexSK extracts the person ID from NAME#{normalized}#{id}.
// The normalized name itself may contain '#' only if the source name did,
// so the ID is taken from the final segment.
func parsePersonIndexSK(sk string) (string, error) {
	idx := strings.LastIndex(sk, "#")
	if !strings.HasPrefix(sk, "NAME#") || idx <= len("NAME#") {
		return "", fmt.Errorf("malformed person index sort key %q", sk)
	}
	return sk[idx+1:], nil
}
