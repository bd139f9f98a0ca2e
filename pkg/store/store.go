// Package store is the encrypted local record store. It persists
// meetings plus side tables for status, comments, ratings, icon
// annotations, and scalar settings, each in its own partition, keyed by
// meeting id. Values are JSON-serialized and sealed with AES-256-GCM
// before they reach disk.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"github.com/peterbourgon/diskv/v3"

	"github.com/otherjamesbrown/meetwise-cli/credentials"
	"github.com/otherjamesbrown/meetwise-cli/pkg/meeting"
)

// Partition names. Each is a flat map from string id to an encrypted blob.
const (
	partMeetings = "meetings"
	partStatus   = "status"
	partComments = "comments"
	partRatings  = "ratings"
	partIcons    = "icons"
	partPrework  = "prework"
	partActions  = "actions"
	partSettings = "settings"
)

var partitions = []string{
	partMeetings, partStatus, partComments, partRatings,
	partIcons, partPrework, partActions, partSettings,
}

// Settings keys.
const (
	SettingTargetHours      = "targetHours"
	SettingWeeklyPriorities = "weeklyPriorities"
	SettingDaysAhead        = "daysAhead"
)

var (
	// ErrIO indicates a storage read/write failure. The in-memory state
	// may diverge from storage until the next full reload.
	ErrIO = errors.New("storage i/o error")

	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")
)

// Store is the durable, encrypted meeting record store. A single
// logical writer is assumed (one process, one invocation); there is no
// multi-process coordination.
type Store struct {
	d       *diskv.Diskv
	box     *secretBox
	version atomic.Uint64
	changed chan struct{}
}

// Open initializes the store under basePath using the key from the
// provider.
func Open(basePath string, keys credentials.KeyProvider) (*Store, error) {
	key, err := keys.GetKey()
	if err != nil {
		return nil, fmt.Errorf("getting encryption key: %w", err)
	}
	box, err := newSecretBox(key)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(basePath, 0700); err != nil {
		return nil, fmt.Errorf("%w: creating store directory: %v", ErrIO, err)
	}

	d := diskv.New(diskv.Options{
		BasePath:          basePath,
		AdvancedTransform: keyToPath,
		InverseTransform:  pathToKey,
		CacheSizeMax:      1024 * 1024, // 1MB
	})

	return &Store{d: d, box: box, changed: make(chan struct{}, 1)}, nil
}

// keyToPath maps "partition/id" keys onto a partition directory per
// table.
func keyToPath(key string) *diskv.PathKey {
	parts := strings.SplitN(key, "/", 2)
	if len(parts) != 2 {
		return &diskv.PathKey{Path: []string{}, FileName: key}
	}
	return &diskv.PathKey{Path: []string{parts[0]}, FileName: parts[1]}
}

func pathToKey(pk *diskv.PathKey) string {
	if len(pk.Path) == 0 {
		return pk.FileName
	}
	return pk.Path[0] + "/" + pk.FileName
}

// Version returns a counter bumped on every successful write. Consumers
// compare versions instead of re-reading unconditionally.
func (s *Store) Version() uint64 {
	return s.version.Load()
}

// Changed returns a channel that receives a coalesced signal after
// writes. The send is non-blocking; a slow consumer sees at most one
// pending signal. One-shot commands never listen; the channel exists
// for long-lived embedders that keep a Facade open and refresh on
// change.
func (s *Store) Changed() <-chan struct{} {
	return s.changed
}

func (s *Store) noteChange() {
	s.version.Add(1)
	select {
	case s.changed <- struct{}{}:
	default:
	}
}

// put serializes, seals, and writes one record.
func (s *Store) put(ctx context.Context, partition, id string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	plain, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: encoding %s/%s: %v", ErrIO, partition, id, err)
	}
	sealed, err := s.box.seal(plain)
	if err != nil {
		return err
	}
	if err := s.d.Write(partition+"/"+id, sealed); err != nil {
		return fmt.Errorf("%w: writing %s/%s: %v", ErrIO, partition, id, err)
	}
	s.noteChange()
	return nil
}

// get reads, opens, and deserializes one record into out.
func (s *Store) get(ctx context.Context, partition, id string, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key := partition + "/" + id
	if !s.d.Has(key) {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	sealed, err := s.d.Read(key)
	if err != nil {
		return fmt.Errorf("%w: reading %s: %v", ErrIO, key, err)
	}
	plain, err := s.box.open(sealed)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(plain, out); err != nil {
		return fmt.Errorf("%w: decoding %s: %v", ErrIO, key, err)
	}
	return nil
}

// forEach decodes every record in a partition.
func (s *Store) forEach(ctx context.Context, partition string, fn func(id string, plain []byte) error) error {
	for key := range s.d.KeysPrefix(partition+"/", ctx.Done()) {
		sealed, err := s.d.Read(key)
		if err != nil {
			return fmt.Errorf("%w: reading %s: %v", ErrIO, key, err)
		}
		plain, err := s.box.open(sealed)
		if err != nil {
			return err
		}
		if err := fn(strings.TrimPrefix(key, partition+"/"), plain); err != nil {
			return err
		}
	}
	return ctx.Err()
}

// PutMeeting writes one meeting, overwriting any record with the same id.
func (s *Store) PutMeeting(ctx context.Context, m meeting.Meeting) error {
	return s.put(ctx, partMeetings, m.ID, m)
}

// PutMeetings writes a batch of meetings. The batch stops at the first
// failure and reports it; already-written records stay written, so the
// caller treats a failed batch as not applied and reloads.
func (s *Store) PutMeetings(ctx context.Context, meetings []meeting.Meeting) error {
	for _, m := range meetings {
		if err := s.put(ctx, partMeetings, m.ID, m); err != nil {
			return err
		}
	}
	return nil
}

// GetMeeting reads one meeting by id.
func (s *Store) GetMeeting(ctx context.Context, id string) (meeting.Meeting, error) {
	var m meeting.Meeting
	err := s.get(ctx, partMeetings, id, &m)
	return m, err
}

// AllMeetings reads every stored meeting, in unspecified order.
func (s *Store) AllMeetings(ctx context.Context) ([]meeting.Meeting, error) {
	meetings := make([]meeting.Meeting, 0)
	err := s.forEach(ctx, partMeetings, func(id string, plain []byte) error {
		var m meeting.Meeting
		if err := json.Unmarshal(plain, &m); err != nil {
			return fmt.Errorf("%w: decoding meeting %s: %v", ErrIO, id, err)
		}
		m.Priority = m.Priority.OrDefault()
		meetings = append(meetings, m)
		return nil
	})
	return meetings, err
}

// PutStatus writes the status side-table entry for a meeting.
func (s *Store) PutStatus(ctx context.Context, meetingID string, st meeting.Status) error {
	return s.put(ctx, partStatus, meetingID, st)
}

// GetStatus reads the status for a meeting; a missing record is the
// all-false default, not an error.
func (s *Store) GetStatus(ctx context.Context, meetingID string) (meeting.Status, error) {
	var st meeting.Status
	err := s.get(ctx, partStatus, meetingID, &st)
	if errors.Is(err, ErrNotFound) {
		return meeting.Status{}, nil
	}
	return st, err
}

// AllStatus reads the full status side table.
func (s *Store) AllStatus(ctx context.Context) (map[string]meeting.Status, error) {
	out := make(map[string]meeting.Status)
	err := s.forEach(ctx, partStatus, func(id string, plain []byte) error {
		var st meeting.Status
		if err := json.Unmarshal(plain, &st); err != nil {
			return fmt.Errorf("%w: decoding status %s: %v", ErrIO, id, err)
		}
		out[id] = st
		return nil
	})
	return out, err
}

// PutComments writes the ordered comment list for a meeting.
func (s *Store) PutComments(ctx context.Context, meetingID string, comments []meeting.Comment) error {
	return s.put(ctx, partComments, meetingID, comments)
}

// GetComments reads the comment list for a meeting; missing means empty.
func (s *Store) GetComments(ctx context.Context, meetingID string) ([]meeting.Comment, error) {
	var comments []meeting.Comment
	err := s.get(ctx, partComments, meetingID, &comments)
	if errors.Is(err, ErrNotFound) {
		return []meeting.Comment{}, nil
	}
	return comments, err
}

// AllComments reads the full comments side table.
func (s *Store) AllComments(ctx context.Context) (map[string][]meeting.Comment, error) {
	out := make(map[string][]meeting.Comment)
	err := s.forEach(ctx, partComments, func(id string, plain []byte) error {
		var comments []meeting.Comment
		if err := json.Unmarshal(plain, &comments); err != nil {
			return fmt.Errorf("%w: decoding comments %s: %v", ErrIO, id, err)
		}
		out[id] = comments
		return nil
	})
	return out, err
}

// PutRating writes the rating for a meeting. Latest write wins.
func (s *Store) PutRating(ctx context.Context, meetingID string, r meeting.Rating) error {
	return s.put(ctx, partRatings, meetingID, r)
}

// GetRating reads the rating for a meeting.
func (s *Store) GetRating(ctx context.Context, meetingID string) (meeting.Rating, error) {
	var r meeting.Rating
	err := s.get(ctx, partRatings, meetingID, &r)
	return r, err
}

// AllRatings reads the full ratings side table.
func (s *Store) AllRatings(ctx context.Context) (map[string]meeting.Rating, error) {
	out := make(map[string]meeting.Rating)
	err := s.forEach(ctx, partRatings, func(id string, plain []byte) error {
		var r meeting.Rating
		if err := json.Unmarshal(plain, &r); err != nil {
			return fmt.Errorf("%w: decoding rating %s: %v", ErrIO, id, err)
		}
		out[id] = r
		return nil
	})
	return out, err
}

// PutIcon writes the icon annotation for a meeting.
func (s *Store) PutIcon(ctx context.Context, meetingID, icon string) error {
	return s.put(ctx, partIcons, meetingID, icon)
}

// AllIcons reads the icon annotation table.
func (s *Store) AllIcons(ctx context.Context) (map[string]string, error) {
	return s.allStrings(ctx, partIcons)
}

// PutPreworkIcon writes the prework icon annotation for a meeting.
func (s *Store) PutPreworkIcon(ctx context.Context, meetingID, icon string) error {
	return s.put(ctx, partPrework, meetingID, icon)
}

// AllPreworkIcons reads the prework icon annotation table.
func (s *Store) AllPreworkIcons(ctx context.Context) (map[string]string, error) {
	return s.allStrings(ctx, partPrework)
}

func (s *Store) allStrings(ctx context.Context, partition string) (map[string]string, error) {
	out := make(map[string]string)
	err := s.forEach(ctx, partition, func(id string, plain []byte) error {
		var v string
		if err := json.Unmarshal(plain, &v); err != nil {
			return fmt.Errorf("%w: decoding %s/%s: %v", ErrIO, partition, id, err)
		}
		out[id] = v
		return nil
	})
	return out, err
}

// PutShowActions writes the show-actions toggle for a meeting.
func (s *Store) PutShowActions(ctx context.Context, meetingID string, show bool) error {
	return s.put(ctx, partActions, meetingID, show)
}

// AllShowActions reads the show-actions table.
func (s *Store) AllShowActions(ctx context.Context) (map[string]bool, error) {
	out := make(map[string]bool)
	err := s.forEach(ctx, partActions, func(id string, plain []byte) error {
		var v bool
		if err := json.Unmarshal(plain, &v); err != nil {
			return fmt.Errorf("%w: decoding actions/%s: %v", ErrIO, id, err)
		}
		out[id] = v
		return nil
	})
	return out, err
}

// PutSetting writes a scalar setting.
func (s *Store) PutSetting(ctx context.Context, key string, value any) error {
	return s.put(ctx, partSettings, key, value)
}

// GetSetting reads a scalar setting into out. Returns ErrNotFound when
// the setting has never been written.
func (s *Store) GetSetting(ctx context.Context, key string, out any) error {
	return s.get(ctx, partSettings, key, out)
}

// ClearAll wipes every partition. The clears are independent and
// best-effort: all partitions are attempted, and the first failure is
// reported after the sweep.
func (s *Store) ClearAll(ctx context.Context) error {
	var firstErr error
	for _, partition := range partitions {
		for key := range s.d.KeysPrefix(partition+"/", ctx.Done()) {
			if err := s.d.Erase(key); err != nil && firstErr == nil {
				firstErr = fmt.Errorf("%w: clearing %s: %v", ErrIO, key, err)
			}
		}
	}
	if err := ctx.Err(); err != nil && firstErr == nil {
		firstErr = err
	}
	if firstErr == nil {
		s.noteChange()
	}
	return firstErr
}
