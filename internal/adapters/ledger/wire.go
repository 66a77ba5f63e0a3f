package ledger

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/okian/arcboard/internal/domain/model"
)

// Tag is one name/value filter attached to a query.
type Tag struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Query actions understood by the ledger process.
const (
	actionTopPlayers    = "query-top-players"
	actionPlayerHistory = "query-player-history"
	actionGameStats     = "query-game-stats"
	actionRecentPlayers = "query-last-players"
	actionTotalPlayers  = "get-total-players"
	actionBoardState    = "get-leaderboard-state"
)

// envelope is the JSON payload carried inside a dryrun message.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// wireTime decodes the ledger's mixed timestamp encodings: RFC3339 strings,
// unix-milli numbers, and numeric strings all appear in practice.
type wireTime struct {
	time.Time
}

func (t *wireTime) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == `""` {
		t.Time = time.Time{}
		return nil
	}

	if s[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
			t.Time = parsed
			return nil
		}
		s = raw
	}

	millis, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("unrecognized timestamp %q", s)
	}
	t.Time = time.UnixMilli(millis).UTC()
	return nil
}

// wireRecord is one raw score record as the ledger serializes it.
type wireRecord struct {
	WalletAddress string      `json:"walletAddress"`
	Username      string      `json:"username"`
	Score         json.Number `json:"score"`
	Timestamp     wireTime    `json:"timestamp"`
}

func (r wireRecord) toModel() (model.ScoreRecord, error) {
	// Scores occasionally arrive as decimal strings; truncate like the
	// original consumer did with Number(entry.score).
	score, err := r.Score.Int64()
	if err != nil {
		f, ferr := r.Score.Float64()
		if ferr != nil {
			return model.ScoreRecord{}, fmt.Errorf("unrecognized score %q", r.Score.String())
		}
		score = int64(f)
	}

	return model.ScoreRecord{
		Address:   model.PlayerID(r.WalletAddress),
		Username:  r.Username,
		Score:     score,
		Timestamp: r.Timestamp.Time,
	}, nil
}

// decodeRecordList decodes an array of raw records.
func decodeRecordList(data json.RawMessage) ([]model.ScoreRecord, error) {
	var wire []wireRecord
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return convertRecords(wire)
}

// decodeRecordMap decodes records keyed by an opaque id, the shape the
// history and recent-players actions use. Key order is not meaningful;
// records are re-ordered by timestamp by the callers that care.
func decodeRecordMap(data json.RawMessage) ([]model.ScoreRecord, error) {
	var keyed map[string]wireRecord
	if err := json.Unmarshal(data, &keyed); err != nil {
		// Some process versions answer with a plain array here.
		return decodeRecordList(data)
	}
	wire := make([]wireRecord, 0, len(keyed))
	for _, r := range keyed {
		wire = append(wire, r)
	}
	return convertRecords(wire)
}

func convertRecords(wire []wireRecord) ([]model.ScoreRecord, error) {
	records := make([]model.ScoreRecord, 0, len(wire))
	for _, w := range wire {
		rec, err := w.toModel()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
		}
		records = append(records, rec)
	}
	return records, nil
}
