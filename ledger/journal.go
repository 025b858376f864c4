package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/warp/clinic-ledger/generic"
)

// =============================================================================
// JOURNAL - the only write path into the ledger
// =============================================================================

// Journal posts and revises entries.
type Journal struct {
	store Store
	log   zerolog.Logger
	now   func() time.Time
}

// NewJournal returns a journal backed by store.
func NewJournal(store Store, log zerolog.Logger) *Journal {
	return &Journal{
		store: store,
		log:   log.With().Str("component", "journal").Logger(),
		now:   time.Now,
	}
}

// WithNow pins the clock used for created and revised timestamps.
func (j *Journal) WithNow(now func() time.Time) *Journal {
	j.now = now
	return j
}

// Post validates and persists one entry with all its lines. Validation runs
// before any write; on error nothing is stored.
func (j *Journal) Post(ctx context.Context, in PostingInput) (Entry, error) {
	lines, err := normalizeLines(in)
	if err != nil {
		return Entry{}, err
	}

	date := generic.TruncateDay(in.Date)
	source := in.Source
	if source == "" {
		source = SourceManual
	}
	ref := strings.TrimSpace(in.Reference)
	if ref != "" && source != SourceClosing && source != SourcePayroll {
		return Entry{}, fmt.Errorf("%w: %q on %s entry", ErrReservedReference, ref, source)
	}

	var entry Entry
	err = j.store.WithTx(ctx, func(ctx context.Context) error {
		for i := range lines {
			acct, err := j.resolveAccount(ctx, in.Lines[i])
			if err != nil {
				return fmt.Errorf("line %d: %w", i+1, err)
			}
			lines[i].AccountID = acct.ID
		}

		period, err := j.store.GetAccountingPeriod(ctx, generic.MonthContaining(date))
		if err != nil {
			return err
		}
		if period.Status == PeriodClosed {
			return fmt.Errorf("%w: %s", ErrPeriodClosed, generic.MonthContaining(date))
		}

		seq, err := j.store.NextEntrySeq(ctx)
		if err != nil {
			return err
		}

		if ref == "" {
			ref = fmt.Sprintf("%s-%06d", source.Prefix(), seq)
		}

		entry = Entry{
			ID:          uuid.NewString(),
			Seq:         seq,
			Date:        date,
			Description: strings.TrimSpace(in.Description),
			Reference:   ref,
			Source:      source,
			CreatedAt:   j.now().UTC(),
		}
		for i := range lines {
			lines[i].ID = uuid.NewString()
			lines[i].EntryID = entry.ID
			lines[i].LineNo = i + 1
		}
		entry.Lines = lines

		return j.store.InsertEntry(ctx, entry)
	})
	if err != nil {
		return Entry{}, err
	}

	debit, _ := entry.Totals()
	j.log.Info().
		Str("reference", entry.Reference).
		Str("source", string(entry.Source)).
		Str("date", generic.FormatDate(entry.Date)).
		Str("amount", debit.StringFixed(2)).
		Int("lines", len(entry.Lines)).
		Msg("journal entry posted")
	return entry, nil
}

// Revise changes the description of a posted entry and records why. Amounts
// and accounts never change.
func (j *Journal) Revise(ctx context.Context, entryID, description, reason string) (Entry, error) {
	description = strings.TrimSpace(description)
	reason = strings.TrimSpace(reason)
	if description == "" {
		return Entry{}, generic.Field("description", "required")
	}
	if reason == "" {
		return Entry{}, generic.Field("revision_reason", "required")
	}

	var entry Entry
	err := j.store.WithTx(ctx, func(ctx context.Context) error {
		if _, err := j.store.GetEntry(ctx, entryID); err != nil {
			return err
		}
		if err := j.store.ReviseEntry(ctx, entryID, description, reason, j.now().UTC()); err != nil {
			return err
		}
		var err error
		entry, err = j.store.GetEntry(ctx, entryID)
		return err
	})
	if err != nil {
		return Entry{}, err
	}

	j.log.Info().Str("reference", entry.Reference).Str("reason", reason).Msg("journal entry revised")
	return entry, nil
}

// Get returns one entry with its lines.
func (j *Journal) Get(ctx context.Context, id string) (Entry, error) {
	return j.store.GetEntry(ctx, id)
}

// List returns entries in creation order.
func (j *Journal) List(ctx context.Context, f EntryFilter) ([]Entry, error) {
	if err := f.Range.Validate(); err != nil {
		return nil, err
	}
	return j.store.ListEntries(ctx, f)
}

func (j *Journal) resolveAccount(ctx context.Context, pl PostingLine) (Account, error) {
	if pl.AccountID != "" {
		return j.store.GetAccount(ctx, pl.AccountID)
	}
	if pl.AccountCode != "" {
		return j.store.GetAccountByCode(ctx, pl.AccountCode)
	}
	return Account{}, generic.Field("account", "account id or code required")
}

// normalizeLines rounds every amount to cents and checks the entry shape and
// balance. The returned lines have no account, ID or number yet.
func normalizeLines(in PostingInput) ([]Line, error) {
	if strings.TrimSpace(in.Description) == "" {
		return nil, generic.Field("description", "required")
	}
	if in.Date.IsZero() {
		return nil, generic.Field("date", "required")
	}
	if in.Source != "" && !in.Source.Valid() {
		return nil, generic.Field("source", fmt.Sprintf("unknown source %q", in.Source))
	}
	if len(in.Lines) < 2 {
		return nil, ErrTooFewLines
	}

	lines := make([]Line, len(in.Lines))
	debit, credit := decimal.Zero, decimal.Zero
	for i, pl := range in.Lines {
		d := generic.RoundMoney(pl.Debit)
		c := generic.RoundMoney(pl.Credit)
		if d.IsNegative() || c.IsNegative() {
			return nil, fmt.Errorf("line %d: %w", i+1, ErrNegativeAmount)
		}
		if d.IsZero() && c.IsZero() {
			return nil, fmt.Errorf("line %d: %w", i+1, ErrEmptyLine)
		}
		lines[i] = Line{
			Debit:      d,
			Credit:     c,
			Department: strings.TrimSpace(pl.Department),
			Memo:       strings.TrimSpace(pl.Memo),
		}
		debit = debit.Add(d)
		credit = credit.Add(c)
	}

	if !debit.Equal(credit) {
		return nil, &UnbalancedError{Debit: debit, Credit: credit}
	}
	return lines, nil
}
