package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/mwantia/godraft/pkg/db/models"
	"github.com/mwantia/godraft/pkg/log"
)

// Binder connects form fields to the draft lifecycle. Prepare turns stored
// file ids into draft item ids for rendering; Commit turns submitted draft
// item ids back into permanent file ids. Repeated Prepare calls for the same
// files reuse the existing drafts.
type Binder struct {
	manager *Manager
	log     log.LoggerService
}

func NewBinder(manager *Manager) *Binder {
	return &Binder{
		manager: manager,
		log:     manager.log.Named("binder"),
	}
}

// Prepare returns one draft item id per file id. Missing files and empty
// fields get an empty placeholder draft.
func (b *Binder) Prepare(ctx context.Context, fileIDs []uint, userID *int64) ([]int64, error) {
	if len(fileIDs) == 0 {
		id, err := b.emptyDraft(ctx, userID)
		if err != nil {
			return nil, err
		}
		return []int64{id}, nil
	}

	// A value that already names a draft has been prepared before.
	if draft, _, err := b.findUserDraft(ctx, int64(fileIDs[0]), userID); err != nil {
		return nil, err
	} else if draft != nil {
		ids := make([]int64, 0, len(fileIDs))
		for _, id := range fileIDs {
			ids = append(ids, int64(id))
		}
		b.log.Debug("Value %d is already a draft item id, reusing", fileIDs[0])
		return ids, nil
	}

	draftIDs := make([]int64, 0, len(fileIDs))
	for _, fileID := range fileIDs {
		copies, err := b.manager.store.FindFilesByReference(ctx, models.DraftComponent, models.DraftFileArea, fileID)
		if err != nil {
			return nil, fmt.Errorf("failed to find draft copies of file %d: %w", fileID, err)
		}

		if existing := filterUser(copies, userID); existing != nil {
			draftIDs = append(draftIDs, existing.ItemID)
			continue
		}

		draftItemID, err := b.manager.NewDraftItemID(ctx)
		if err != nil {
			return nil, err
		}

		if _, err := b.manager.CopyToDraftFor(ctx, fileID, draftItemID, userID); err != nil {
			if !errors.Is(err, ErrNotFound) {
				return nil, err
			}

			b.log.Debug("File %d not found, creating empty draft instead", fileID)
			id, err := b.emptyDraft(ctx, userID)
			if err != nil {
				return nil, err
			}
			draftItemID = id
		}

		draftIDs = append(draftIDs, draftItemID)
	}

	return draftIDs, nil
}

// Commit promotes submitted drafts to dest and returns the resulting file
// ids. Values that are not drafts are treated as file ids and kept. Files
// listed in original but absent from the result are deleted when they belong
// to dest's component and filearea. Empty placeholders are discarded.
func (b *Binder) Commit(ctx context.Context, submitted []int64, original []uint, dest Destination, userID *int64) ([]uint, error) {
	result := make([]uint, 0, len(submitted))

	for _, value := range submitted {
		draft, foreign, err := b.findUserDraft(ctx, value, userID)
		if err != nil {
			return nil, err
		}

		if foreign {
			b.log.Warn("Draft %d belongs to another user, ignoring", value)
			continue
		}

		if draft == nil {
			if value > 0 {
				result = append(result, uint(value))
			}
			continue
		}

		if draft.IsPlaceholder() {
			if err := b.manager.Delete(ctx, draft.ID); err != nil && !errors.Is(err, ErrNotFound) {
				return nil, err
			}
			continue
		}

		promoted, err := b.manager.Promote(ctx, value, dest)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("failed to move file from draft: %w", err)
		}
		result = append(result, promoted.ID)
	}

	keep := make(map[uint]bool, len(result))
	for _, id := range result {
		keep[id] = true
	}

	for _, id := range original {
		if keep[id] {
			continue
		}

		file, err := b.manager.store.GetFile(ctx, id)
		if err != nil {
			continue
		}
		if file.Component != dest.Component || file.FileArea != dest.FileArea {
			continue
		}

		if err := b.manager.Delete(ctx, id); err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		b.log.Debug("Deleted replaced file %d", id)
	}

	return result, nil
}

func (b *Binder) emptyDraft(ctx context.Context, userID *int64) (int64, error) {
	id, err := b.manager.NewDraftItemID(ctx)
	if err != nil {
		return 0, err
	}
	if _, err := b.manager.CreateEmptyDraftFile(ctx, id, userID); err != nil {
		return 0, err
	}
	return id, nil
}

// findUserDraft returns the draft of userID carrying itemID. foreign is set
// when drafts with itemID exist but none belongs to userID.
func (b *Binder) findUserDraft(ctx context.Context, itemID int64, userID *int64) (draft *models.File, foreign bool, err error) {
	files, err := b.manager.store.ListFiles(ctx, models.DraftComponent, models.DraftFileArea, itemID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to look up draft %d: %w", itemID, err)
	}

	draft = filterUser(files, userID)
	return draft, draft == nil && len(files) > 0, nil
}

func filterUser(files []models.File, userID *int64) *models.File {
	for i := range files {
		if sameUser(files[i].UserID, userID) {
			return &files[i]
		}
	}
	return nil
}

func sameUser(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// ParseIDs reads the hidden field value a widget submits: a JSON array of
// numbers or numeric strings, a list separated by commas, semicolons or
// whitespace, or a single number. Zero and non-numeric entries are skipped.
func ParseIDs(value string) []int64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	// Numbers are kept as json.Number so ids above 2^53 parse exactly.
	var decoded []any
	decoder := json.NewDecoder(strings.NewReader(value))
	decoder.UseNumber()
	if err := decoder.Decode(&decoded); err == nil {
		ids := make([]int64, 0, len(decoded))
		for _, v := range decoded {
			switch t := v.(type) {
			case json.Number:
				if n, err := t.Int64(); err == nil {
					ids = appendPositive(ids, n)
				}
			case string:
				if n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64); err == nil {
					ids = appendPositive(ids, n)
				}
			}
		}
		return ids
	}

	parts := strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == ';' || unicode.IsSpace(r)
	})

	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		if n, err := strconv.ParseInt(part, 10, 64); err == nil {
			ids = appendPositive(ids, n)
		}
	}
	return ids
}

func appendPositive(ids []int64, n int64) []int64 {
	if n > 0 {
		return append(ids, n)
	}
	return ids
}
