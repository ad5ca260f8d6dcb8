package forum

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	dbm "github.com/cometbft/cometbft-db"
)

// AppState is the part of the application state that lives outside the
// account store. Size counts applied transactions.
type AppState struct {
	db     dbm.DB
	Size   int64 `json:"size"`
	Height int64 `json:"height"`
}

var stateKey = []byte("appstate")

func (s AppState) Hash() []byte {
	appHash := make([]byte, 8)
	binary.PutVarint(appHash, s.Size)
	return appHash
}

func loadState(db dbm.DB) (AppState, error) {
	state := AppState{db: db}
	stateBytes, err := db.Get(stateKey)
	if err != nil {
		return state, fmt.Errorf("failed to load app state: %w", err)
	}
	if len(stateBytes) == 0 {
		return state, nil
	}
	if err := json.Unmarshal(stateBytes, &state); err != nil {
		return state, fmt.Errorf("failed to decode app state: %w", err)
	}
	state.db = db
	return state, nil
}

func saveState(state *AppState) error {
	stateBytes, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return state.db.SetSync(stateKey, stateBytes)
}
