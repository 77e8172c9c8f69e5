package receipt

import (
	"time"

	"github.com/mdwight/quittance/internal/period"
	"github.com/mdwight/quittance/internal/store"
)

// fakePayments implements PaymentReader and PaymentUpserter in memory.
type fakePayments struct {
	byID       map[uint]*store.PaymentDetails
	byPeriod   map[string][]store.PaymentDetails
	upsertID   uint
	upsertAct  store.UpsertAction
	upsertErr  error
	upsertSeen int
}

func newFakePayments() *fakePayments {
	return &fakePayments{
		byID:     map[uint]*store.PaymentDetails{},
		byPeriod: map[string][]store.PaymentDetails{},
	}
}

func (f *fakePayments) add(d store.PaymentDetails) {
	copied := d
	f.byID[d.RentPaymentID] = &copied
	f.byPeriod[d.Period] = append(f.byPeriod[d.Period], d)
}

func (f *fakePayments) FindForPeriod(p period.Period) ([]store.PaymentDetails, error) {
	return f.byPeriod[p.String()], nil
}

func (f *fakePayments) FindWithDetails(id uint) (*store.PaymentDetails, error) {
	d, ok := f.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return d, nil
}

func (f *fakePayments) UpsertForPeriod(tenantID, propertyID uint, p period.Period, paidAt time.Time) (uint, store.UpsertAction, error) {
	f.upsertSeen++
	return f.upsertID, f.upsertAct, f.upsertErr
}

// fakeReceipts implements ReceiptRecorder in memory, mirroring the store's
// MarkSent/MarkArchived semantics.
type fakeReceipts struct {
	nextID uint
	order  []uint
	rows   map[uint]*store.ReceiptDetails
	// paymentMeta supplies the joined tenant columns Create cannot know.
	paymentMeta map[uint]store.ReceiptDetails
}

func newFakeReceipts() *fakeReceipts {
	return &fakeReceipts{
		rows:        map[uint]*store.ReceiptDetails{},
		paymentMeta: map[uint]store.ReceiptDetails{},
	}
}

// registerPayment records the join columns for a payment so Create can fill
// them in, the way the real store's joined queries would.
func (f *fakeReceipts) registerPayment(paymentID, tenantID uint, periodText, email, name string) {
	f.paymentMeta[paymentID] = store.ReceiptDetails{
		RentPaymentID: paymentID,
		TenantID:      tenantID,
		Period:        periodText,
		TenantEmail:   email,
		TenantName:    name,
	}
}

// seed inserts a fully formed receipt row and returns its id.
func (f *fakeReceipts) seed(row store.ReceiptDetails) uint {
	f.nextID++
	row.ID = f.nextID
	f.rows[row.ID] = &row
	f.order = append(f.order, row.ID)
	return row.ID
}

func (f *fakeReceipts) ExistsForTenantAndPeriod(tenantID uint, p period.Period) (bool, error) {
	for _, id := range f.order {
		row := f.rows[id]
		if row.TenantID == tenantID && row.Period == p.String() {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeReceipts) Create(rentPaymentID uint, pdfPath string) (uint, error) {
	row := f.paymentMeta[rentPaymentID]
	row.RentPaymentID = rentPaymentID
	row.PDFPath = pdfPath
	return f.seed(row), nil
}

func (f *fakeReceipts) FindByPaymentID(rentPaymentID uint) (*store.Receipt, error) {
	for _, id := range f.order {
		row := f.rows[id]
		if row.RentPaymentID == rentPaymentID {
			return &store.Receipt{
				ID:            row.ID,
				RentPaymentID: row.RentPaymentID,
				PDFPath:       row.PDFPath,
				SentAt:        row.SentAt,
				ArchivedAt:    row.ArchivedAt,
			}, nil
		}
	}
	return nil, nil
}

func (f *fakeReceipts) FindDetailed(id uint) (*store.ReceiptDetails, error) {
	row, ok := f.rows[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *row
	return &copied, nil
}

func (f *fakeReceipts) FindPendingByPeriod(p period.Period) ([]store.ReceiptDetails, error) {
	return f.selectRows(func(r *store.ReceiptDetails) bool {
		return r.Period == p.String() && r.SentAt == nil
	}), nil
}

func (f *fakeReceipts) FindByPeriod(p period.Period) ([]store.ReceiptDetails, error) {
	return f.selectRows(func(r *store.ReceiptDetails) bool {
		return r.Period == p.String()
	}), nil
}

func (f *fakeReceipts) FindSentNotArchivedByPeriod(p period.Period) ([]store.ReceiptDetails, error) {
	return f.selectRows(func(r *store.ReceiptDetails) bool {
		return r.Period == p.String() && r.SentAt != nil && r.ArchivedAt == nil
	}), nil
}

func (f *fakeReceipts) selectRows(keep func(*store.ReceiptDetails) bool) []store.ReceiptDetails {
	var out []store.ReceiptDetails
	for _, id := range f.order {
		if row := f.rows[id]; keep(row) {
			out = append(out, *row)
		}
	}
	return out
}

func (f *fakeReceipts) MarkSent(id uint, sendErr error) error {
	row, ok := f.rows[id]
	if !ok {
		return store.ErrNotFound
	}
	if sendErr == nil {
		now := time.Now()
		row.SentAt = &now
		row.SendError = nil
		return nil
	}
	msg := sendErr.Error()
	row.SendError = &msg
	return nil
}

func (f *fakeReceipts) MarkArchived(id uint, archivedPath string, archiveErr error) error {
	row, ok := f.rows[id]
	if !ok {
		return store.ErrNotFound
	}
	if archiveErr == nil {
		now := time.Now()
		row.ArchivedAt = &now
		row.ArchivePath = &archivedPath
		row.ArchiveError = nil
		return nil
	}
	msg := archiveErr.Error()
	row.ArchiveError = &msg
	return nil
}

// stubRenderer returns fixed HTML and records the variables it was given.
type stubRenderer struct {
	html    string
	err     error
	calls   int
	lastVar map[string]string
}

func (r *stubRenderer) Render(templatePath string, variables map[string]string) (string, error) {
	r.calls++
	r.lastVar = variables
	if r.err != nil {
		return "", r.err
	}
	return r.html, nil
}

// stubPDF records render calls without touching the filesystem.
type stubPDF struct {
	err   error
	calls int
	paths []string
}

func (g *stubPDF) Generate(html string, outputPath string, opts PDFOptions) error {
	g.calls++
	g.paths = append(g.paths, outputPath)
	return g.err
}

// stubSender returns a scripted result and records requests.
type stubSender struct {
	result SendResult
	sent   []SendRequest
}

func (s *stubSender) Send(req SendRequest) SendResult {
	s.sent = append(s.sent, req)
	return s.result
}

// stubArchiver returns a scripted result and records calls.
type stubArchiver struct {
	result ArchiveResult
	calls  []string
}

func (a *stubArchiver) Archive(localPath, remotePath string) ArchiveResult {
	a.calls = append(a.calls, remotePath)
	return a.result
}
