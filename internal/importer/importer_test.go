package importer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"csvimport/csv-import/internal/classifier"
	"csvimport/csv-import/internal/csvrows"
	"csvimport/csv-import/internal/dispatcher"
	"csvimport/csv-import/internal/dtaus"
	"csvimport/csv-import/internal/importerror"
	"csvimport/csv-import/internal/ledger"
	"csvimport/csv-import/internal/logging"
	"csvimport/csv-import/internal/models"
	"csvimport/csv-import/internal/remote"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = "ACTIVITY_ID;DEPOT_ACTIVITY_ID;UMSATZ_KEY;AMOUNT;ENTRY_DATE;SENDER_BLZ;SENDER_KONTO;SENDER_NAME;RECEIVER_BLZ;RECEIVER_KONTO;RECEIVER_NAME;DESC1;DESC2"

var fixedNow = time.Date(2024, 3, 7, 14, 5, 9, 0, time.UTC)

func accountTransferRow(id, sender string) string {
	return id + ";;10;12.50;2024-03-01;00000000;" + sender + ";Alice;00000000;200;Bob;Rent;March"
}

func bankTransferRow(id string) string {
	return id + ";;10;3;2024-03-01;00000000;100;Alice;10020030;12345;Erika;Transfer;"
}

func directDebitRow(id, account string) string {
	return id + ";;16;25.00;2024-03-01;10020030;" + account + ";Jürgen Müller;70022200;8888888888;RS;Fee;"
}

func csvFile(t *testing.T, dir, name string, rows ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	content := strings.Join(append([]string{header}, rows...), "\n") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

type recordedMessage struct {
	Subject string
	Body    string
}

type recordingNotifier struct {
	messages []recordedMessage
	err      error
}

func (n *recordingNotifier) Notify(_ context.Context, subject, body string) error {
	n.messages = append(n.messages, recordedMessage{Subject: subject, Body: body})
	return n.err
}

type env struct {
	dir      string
	batchDir string
	ledger   *ledger.Mock
	notifier *recordingNotifier
	logger   *logging.MockLogger
	deps     Deps
}

func newEnv(t *testing.T) *env {
	t.Helper()
	dir := t.TempDir()
	logger := logging.NewMockLogger()
	l := ledger.NewMock(ledger.Account{ID: "a1", Number: "100"}, ledger.Account{ID: "a2", Number: "200"})
	n := &recordingNotifier{}
	batchDir := filepath.Join(dir, "batch")

	return &env{
		dir:      dir,
		batchDir: batchDir,
		ledger:   l,
		notifier: n,
		logger:   logger,
		deps: Deps{
			Parser:     csvrows.NewParser(logger),
			Classifier: classifier.New(nil, ""),
			Dispatcher: dispatcher.New(l, logger, 0),
			Notifier:   n,
			Batch: BatchSettings{
				Kind:   dtaus.KindDebit,
				Sender: dtaus.Account{Number: "8888888888", BankCode: "99999999", Holder: "Credit collection"},
				Dir:    batchDir,
			},
			Logger: logger,
			Now:    func() time.Time { return fixedNow },
		},
	}
}

func (e *env) importer() *Importer { return New(e.deps) }

func (e *env) batchFiles(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(e.batchDir)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	var names []string
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names
}

func TestImportFileSuccess(t *testing.T) {
	e := newEnv(t)
	path := csvFile(t, e.dir, "in.csv",
		accountTransferRow("1", "100"),
		directDebitRow("2", "12345"),
		bankTransferRow("3"),
	)

	outcome := e.importer().ImportFile(context.Background(), path, false)
	assert.True(t, outcome.Success())
	assert.Equal(t, []string{"1", "2", "3"}, outcome.Succeeded)
	assert.Equal(t, "Success", outcome.Summary())

	require.Len(t, e.ledger.SavedAccountTransfers, 1)
	assert.Equal(t, "RentMarch", e.ledger.SavedAccountTransfers[0].Subject)
	assert.Len(t, e.ledger.SavedBankTransfers, 1)
	assert.Equal(t, []string{"DTAUS20240307_140509_201.dta"}, e.batchFiles(t))
	assert.True(t, e.logger.HasEntry("INFO", "Wrote DTAUS batch"))
}

func TestImportFileStopsAtFirstError(t *testing.T) {
	e := newEnv(t)
	rejected := strings.Replace(accountTransferRow("2", "100"), ";;10;", ";;99;", 1)
	path := csvFile(t, e.dir, "in.csv",
		accountTransferRow("1", "100"),
		rejected,
		accountTransferRow("3", "100"),
	)

	outcome := e.importer().ImportFile(context.Background(), path, false)
	assert.Equal(t, []string{"1"}, outcome.Succeeded)
	assert.Equal(t, []string{"2: UMSATZ_KEY 99 is not allowed"}, outcome.Errors)
	assert.Equal(t, "Imported: 1 Errors: 2: UMSATZ_KEY 99 is not allowed", outcome.Summary())
	assert.Len(t, e.ledger.SavedAccountTransfers, 1, "rows after the error are not processed")
}

func TestImportFileAccountNotFound(t *testing.T) {
	e := newEnv(t)
	path := csvFile(t, e.dir, "in.csv",
		accountTransferRow("7", "000000003"),
		accountTransferRow("8", "100"),
	)

	outcome := e.importer().ImportFile(context.Background(), path, false)
	assert.Empty(t, outcome.Succeeded)
	assert.Equal(t, []string{"7: Account 000000003 not found"}, outcome.Errors)
	assert.Equal(t, "Imported:  Errors: 7: Account 000000003 not found", outcome.Summary())
	assert.Empty(t, e.ledger.SavedAccountTransfers)
}

func TestImportFileInvalidDirectDebitWritesNoBatch(t *testing.T) {
	e := newEnv(t)
	path := csvFile(t, e.dir, "in.csv",
		directDebitRow("4", "12345"),
		directDebitRow("5", "0"),
	)

	outcome := e.importer().ImportFile(context.Background(), path, false)
	assert.Equal(t, []string{"4"}, outcome.Succeeded)
	assert.Equal(t, []string{"5: BLZ/Konto not valid, csv fiile not written"}, outcome.Errors)
	assert.Empty(t, e.batchFiles(t))
}

func TestImportFileUnknownTransactionType(t *testing.T) {
	e := newEnv(t)
	path := csvFile(t, e.dir, "in.csv",
		"9;;10;1;2024-03-01;10020030;12345;X;20030040;678;Y;Z;",
	)

	outcome := e.importer().ImportFile(context.Background(), path, false)
	assert.Equal(t, []string{"9: Transaction type not found"}, outcome.Errors)
}

func TestImportFileSenderCheckedBeforeAmount(t *testing.T) {
	e := newEnv(t)
	path := csvFile(t, e.dir, "in.csv",
		"9;;16;;2024-03-01;10020030;0;X;70022200;8888888888;RS;Fee;",
	)

	outcome := e.importer().ImportFile(context.Background(), path, false)
	assert.Equal(t, []string{"9: BLZ/Konto not valid, csv fiile not written"}, outcome.Errors)

	unknownSender := strings.Replace(accountTransferRow("7", "000000003"), ";12.50;", ";abc;", 1)
	path = csvFile(t, e.dir, "sender.csv", unknownSender)
	outcome = e.importer().ImportFile(context.Background(), path, false)
	assert.Equal(t, []string{"7: Account 000000003 not found"}, outcome.Errors)
}

func TestImportFileSkipsBlankActivityIDs(t *testing.T) {
	e := newEnv(t)
	blankRejected := strings.Replace(accountTransferRow("", "100"), ";;10;", ";;99;", 1)
	path := csvFile(t, e.dir, "in.csv",
		accountTransferRow("", "100"),
		blankRejected,
		accountTransferRow("1", "100"),
		"",
	)

	outcome := e.importer().ImportFile(context.Background(), path, false)
	assert.True(t, outcome.Success())
	assert.Equal(t, []string{"1"}, outcome.Succeeded)
	assert.Len(t, e.ledger.SavedAccountTransfers, 1)
}

func TestImportFileDryRun(t *testing.T) {
	e := newEnv(t)
	path := csvFile(t, e.dir, "in.csv",
		accountTransferRow("1", "100"),
		directDebitRow("2", "12345"),
		bankTransferRow("3"),
	)

	outcome := e.importer().ImportFile(context.Background(), path, true)
	assert.True(t, outcome.Success())
	assert.Equal(t, []string{"1", "2", "3"}, outcome.Succeeded)
	assert.Zero(t, e.ledger.SaveCalls)
	assert.Empty(t, e.batchFiles(t))
}

func TestImportFileEmpty(t *testing.T) {
	e := newEnv(t)
	path := filepath.Join(e.dir, "empty.csv")
	require.NoError(t, os.WriteFile(path, nil, 0600))

	outcome := e.importer().ImportFile(context.Background(), path, false)
	assert.True(t, outcome.Success())
	assert.Empty(t, outcome.Succeeded)
	assert.Empty(t, e.batchFiles(t))

	headerOnly := csvFile(t, e.dir, "header.csv")
	assert.True(t, e.importer().ImportFile(context.Background(), headerOnly, false).Success())
}

func TestImportFileDataLost(t *testing.T) {
	e := newEnv(t)

	t.Run("malformed file", func(t *testing.T) {
		path := filepath.Join(e.dir, "broken.csv")
		require.NoError(t, os.WriteFile(path, []byte(header+"\n1;\"unterminated\n"), 0600))

		outcome := e.importer().ImportFile(context.Background(), path, false)
		assert.Equal(t, []string{importerror.DataLost}, outcome.Succeeded)
		require.Len(t, outcome.Errors, 1)
		assert.Contains(t, outcome.Errors[0], "failed to parse")
	})

	t.Run("missing file", func(t *testing.T) {
		outcome := e.importer().ImportFile(context.Background(), filepath.Join(e.dir, "missing.csv"), false)
		assert.Equal(t, []string{importerror.DataLost}, outcome.Succeeded)
		assert.Len(t, outcome.Errors, 1)
	})

	t.Run("batch cannot be written", func(t *testing.T) {
		blocked := newEnv(t)
		require.NoError(t, os.WriteFile(blocked.batchDir, nil, 0600))
		path := csvFile(t, blocked.dir, "in.csv", directDebitRow("2", "12345"))

		outcome := blocked.importer().ImportFile(context.Background(), path, false)
		assert.Equal(t, []string{importerror.DataLost}, outcome.Succeeded)
		require.Len(t, outcome.Errors, 1)
		assert.Contains(t, outcome.Errors[0], "write DTAUS batch")
	})
}

type panickingDispatcher struct{}

func (panickingDispatcher) Dispatch(context.Context, models.Transaction, dispatcher.Batch, bool) error {
	panic("boom")
}

func TestImportFileRecoversFromPanic(t *testing.T) {
	e := newEnv(t)
	e.deps.Dispatcher = panickingDispatcher{}
	path := csvFile(t, e.dir, "in.csv", accountTransferRow("1", "100"))

	outcome := e.importer().ImportFile(context.Background(), path, false)
	assert.Equal(t, models.Outcome{Succeeded: []string{"data lost"}, Errors: []string{"import aborted: boom"}}, outcome)
	assert.True(t, e.logger.HasEntry("ERROR", "Import panicked"))
}

func TestInspect(t *testing.T) {
	e := newEnv(t)
	rejected := strings.Replace(accountTransferRow("2", "100"), ";;10;", ";;99;", 1)
	path := csvFile(t, e.dir, "in.csv",
		accountTransferRow("1", "100"),
		rejected,
		accountTransferRow("", "100"),
		directDebitRow("4", "0"),
	)

	reports, err := e.importer().Inspect(path)
	require.NoError(t, err)
	require.Len(t, reports, 4)
	assert.Equal(t, RowReport{Line: 2, ActivityID: "1", Kind: "AccountTransfer", Status: RowOK}, reports[0])
	assert.Equal(t, RowRejected, reports[1].Status)
	assert.Equal(t, "2: UMSATZ_KEY 99 is not allowed", reports[1].Message)
	assert.Equal(t, RowSkipped, reports[2].Status)
	assert.Equal(t, "DirectDebit", reports[3].Kind, "sender checks happen at dispatch")
	assert.Equal(t, RowOK, reports[3].Status)

	var buf strings.Builder
	require.NoError(t, WriteRowReports(&buf, reports, ';'))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, "line;activity_id;kind;status;message", lines[0])
	assert.Equal(t, "2;1;AccountTransfer;ok;", lines[1])
	assert.Zero(t, e.ledger.SaveCalls)
}

// remoteEnv wires a directory backed drop box into env.
type remoteEnv struct {
	*env
	root string
}

func newRemoteEnv(t *testing.T) *remoteEnv {
	t.Helper()
	e := newEnv(t)
	root := filepath.Join(e.dir, "remote")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "csv"), 0750))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "processed"), 0750))

	ch, err := remote.NewDirChannel(root, e.logger)
	require.NoError(t, err)
	e.deps.Gate = remote.NewGate(ch, remote.Paths{
		CSVDir:       "/csv",
		ProcessedDir: "/processed",
		DownloadDir:  filepath.Join(e.dir, "download"),
		UploadDir:    filepath.Join(e.dir, "upload"),
		BatchDir:     e.batchDir,
	}, e.logger)
	return &remoteEnv{env: e, root: root}
}

func (r *remoteEnv) drop(t *testing.T, name string, marker bool, rows ...string) {
	t.Helper()
	csvFile(t, filepath.Join(r.root, "csv"), name, rows...)
	if marker {
		require.NoError(t, os.WriteFile(filepath.Join(r.root, "csv", name+".start"), nil, 0600))
	}
}

func (r *remoteEnv) exists(parts ...string) bool {
	_, err := os.Stat(filepath.Join(parts...))
	return err == nil
}

func TestRunImportsEligibleFiles(t *testing.T) {
	r := newRemoteEnv(t)
	r.drop(t, "b.csv", true, bankTransferRow("3"))
	r.drop(t, "a.csv", true, accountTransferRow("1", "100"))
	r.drop(t, "c.csv", false, accountTransferRow("5", "100"))

	report, err := r.importer().Run(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, report.Files, 2)
	assert.Equal(t, "a.csv", report.Files[0].Entry)
	assert.Equal(t, "b.csv", report.Files[1].Entry)
	assert.False(t, report.Failed())

	assert.Equal(t, []recordedMessage{
		{Subject: "Successful Import", Body: "Import of the file a.csv done."},
		{Subject: "Successful Import", Body: "Import of the file b.csv done."},
	}, r.notifier.messages)

	assert.False(t, r.exists(r.dir, "download", "a.csv"), "imported file is removed locally")
	assert.False(t, r.exists(r.root, "csv", "a.csv.start"))
	assert.True(t, r.exists(r.root, "csv", "c.csv"), "file without marker is left alone")
}

func TestRunWithoutMail(t *testing.T) {
	r := newRemoteEnv(t)
	r.drop(t, "a.csv", true, accountTransferRow("1", "100"))

	_, err := r.importer().Run(context.Background(), false)
	require.NoError(t, err)
	assert.Empty(t, r.notifier.messages)
}

func TestRunHaltsOnFirstFailure(t *testing.T) {
	r := newRemoteEnv(t)
	r.drop(t, "a.csv", true, accountTransferRow("1", "100"), accountTransferRow("2", "000000003"))
	r.drop(t, "b.csv", true, accountTransferRow("3", "100"))

	report, err := r.importer().Run(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, report.Files, 1)
	assert.True(t, report.Failed())
	assert.Equal(t, StateFailed, report.Files[0].State)

	want := "Import of the file a.csv failed with errors:\nImported: 1 Errors: 2: Account 000000003 not found"
	uploaded, err := os.ReadFile(filepath.Join(r.root, "processed", "a.csv"))
	require.NoError(t, err)
	assert.Equal(t, want, string(uploaded))
	assert.Equal(t, []recordedMessage{{Subject: "Import CSV failed", Body: want}}, r.notifier.messages)

	assert.True(t, r.exists(r.dir, "download", "a.csv"), "failed file stays staged")
	assert.True(t, r.exists(r.root, "csv", "b.csv.start"), "later files are not touched")
	assert.Len(t, r.ledger.SavedAccountTransfers, 1)
}

// withStore replaces the mock ledger by an in-memory store, which honours
// context cancellation.
func withStore(t *testing.T, e *env) *ledger.Store {
	t.Helper()
	store, err := ledger.Open("", e.logger)
	require.NoError(t, err)
	for _, number := range []string{"100", "200"} {
		_, err := store.AddAccount(context.Background(), ledger.Account{Number: number})
		require.NoError(t, err)
	}
	e.deps.Dispatcher = dispatcher.New(store, e.logger, 0)
	return store
}

func TestImportFileIgnoresCancellation(t *testing.T) {
	e := newEnv(t)
	store := withStore(t, e)
	path := csvFile(t, e.dir, "in.csv", accountTransferRow("1", "100"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome := e.importer().ImportFile(ctx, path, false)
	assert.True(t, outcome.Success(), outcome.Summary())
	assert.Len(t, store.AccountTransfers(), 1)
}

// cancellingGate cancels the run right after a file has been staged.
type cancellingGate struct {
	Gate
	cancel context.CancelFunc
}

func (g *cancellingGate) Stage(ctx context.Context, entry string) (remote.StagedFile, error) {
	staged, err := g.Gate.Stage(ctx, entry)
	g.cancel()
	return staged, err
}

func TestRunFinishesStagedFileAfterCancel(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		r := newRemoteEnv(t)
		store := withStore(t, r.env)
		r.drop(t, "a.csv", true, accountTransferRow("1", "100"), accountTransferRow("2", "100"))
		r.drop(t, "b.csv", true, accountTransferRow("3", "100"))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		r.deps.Gate = &cancellingGate{Gate: r.deps.Gate, cancel: cancel}

		report, err := r.importer().Run(ctx, true)
		require.ErrorIs(t, err, context.Canceled)
		require.Len(t, report.Files, 1)
		assert.Equal(t, StateSucceeded, report.Files[0].State)
		assert.Len(t, store.AccountTransfers(), 2)
		assert.Equal(t, []recordedMessage{{Subject: "Successful Import", Body: "Import of the file a.csv done."}}, r.notifier.messages)
		assert.True(t, r.exists(r.root, "csv", "b.csv.start"), "next file is not started")
	})

	t.Run("failure report is still uploaded", func(t *testing.T) {
		r := newRemoteEnv(t)
		withStore(t, r.env)
		r.drop(t, "a.csv", true, accountTransferRow("1", "000000003"))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		r.deps.Gate = &cancellingGate{Gate: r.deps.Gate, cancel: cancel}

		report, err := r.importer().Run(ctx, false)
		require.NoError(t, err)
		require.Len(t, report.Files, 1)
		assert.Equal(t, []string{"1: Account 000000003 not found"}, report.Files[0].Outcome.Errors)
		assert.True(t, r.exists(r.root, "processed", "a.csv"))
	})
}

type brokenGate struct {
	entries []string
}

func (g *brokenGate) Prepare() error { return nil }

func (g *brokenGate) ListEligible(context.Context) ([]string, error) { return g.entries, nil }

func (g *brokenGate) Stage(_ context.Context, entry string) (remote.StagedFile, error) {
	return remote.StagedFile{}, &importerror.TransferError{Op: "download", Path: "/csv/" + entry, Err: errors.New("connection lost")}
}

func (g *brokenGate) UploadReport(context.Context, string, string) error { return nil }

func TestRunTransferErrorAbortsRun(t *testing.T) {
	e := newEnv(t)
	e.deps.Gate = &brokenGate{entries: []string{"a.csv", "b.csv"}}

	report, err := e.importer().Run(context.Background(), true)
	require.Error(t, err)
	assert.Equal(t, "remote download /csv/a.csv: connection lost", err.Error())
	var transfer *importerror.TransferError
	assert.ErrorAs(t, err, &transfer)
	assert.Empty(t, report.Files)
	assert.Empty(t, e.notifier.messages)
}

func TestRunCanceled(t *testing.T) {
	r := newRemoteEnv(t)
	r.drop(t, "a.csv", true, accountTransferRow("1", "100"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := r.importer().Run(ctx, true)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, report.Files)
	assert.True(t, r.exists(r.root, "csv", "a.csv.start"))
}

func TestRunNotificationFailureIsLogged(t *testing.T) {
	r := newRemoteEnv(t)
	r.notifier.err = errors.New("smtp down")
	r.drop(t, "a.csv", true, accountTransferRow("1", "100"))
	r.drop(t, "b.csv", true, accountTransferRow("2", "100"))

	report, err := r.importer().Run(context.Background(), true)
	require.NoError(t, err)
	assert.Len(t, report.Files, 2)
	assert.Len(t, r.logger.GetEntriesByLevel("WARN"), 2)
}

func TestRunWithoutGate(t *testing.T) {
	_, err := newEnv(t).importer().Run(context.Background(), true)
	assert.ErrorIs(t, err, ErrNoGate)
}
