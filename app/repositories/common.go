package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"cloudcanvas/app/models"

	"github.com/dgraph-io/badger/v4"
)

const (
	// Key prefixes for different entity types
	PostKeyPrefix         = "post:"
	CommentKeyPrefix      = "comment:"
	CommentIndexKeyPrefix = "commentidx:"

	// Sequence keys for auto-incrementing IDs
	CommentSeqKey = "seq:comment"
)

// getNextID gets the next available ID for a given sequence key
func getNextID(txn *badger.Txn, seqKey string) (int, error) {
	var id int
	item, err := txn.Get([]byte(seqKey))
	if errors.Is(err, badger.ErrKeyNotFound) {
		id = 1
	} else if err != nil {
		return 0, fmt.Errorf("failed to get sequence: %w", err)
	} else {
		err = item.Value(func(val []byte) error {
			id, err = strconv.Atoi(string(val))
			if err != nil {
				return fmt.Errorf("failed to parse sequence: %w", err)
			}
			id++
			return nil
		})
		if err != nil {
			return 0, err
		}
	}

	if err := txn.Set([]byte(seqKey), []byte(strconv.Itoa(id))); err != nil {
		return 0, fmt.Errorf("failed to update sequence: %w", err)
	}

	return id, nil
}

// marshalEntity marshals an entity to JSON
func marshalEntity(entity interface{}) ([]byte, error) {
	data, err := json.Marshal(entity)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entity: %w", err)
	}
	return data, nil
}

// unmarshalEntity unmarshals JSON data into an entity
func unmarshalEntity(data []byte, entity interface{}) error {
	if err := json.Unmarshal(data, entity); err != nil {
		return fmt.Errorf("failed to unmarshal entity: %w", err)
	}
	return nil
}

// OrderComments sorts comments given in insertion order by creation time.
// Equal timestamps keep the later insertion first for NewestFirst.
func OrderComments(comments []*models.Comment, order SortOrder) {
	if order == NewestFirst {
		for i, j := 0, len(comments)-1; i < j; i, j = i+1, j-1 {
			comments[i], comments[j] = comments[j], comments[i]
		}
		sort.SliceStable(comments, func(i, j int) bool {
			return comments[i].CreatedAt.After(comments[j].CreatedAt)
		})
		return
	}
	sort.SliceStable(comments, func(i, j int) bool {
		return comments[i].CreatedAt.Before(comments[j].CreatedAt)
	})
}
