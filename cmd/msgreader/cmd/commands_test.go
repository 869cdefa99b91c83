package cmd

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/google/go-cmp/cmp"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/wesm/msgreader/internal/config"
	"github.com/wesm/msgreader/internal/msg"
	"github.com/wesm/msgreader/internal/testutil"
	"github.com/wesm/msgreader/internal/testutil/msgtest"
)

// setupCmdTest installs a quiet logger and a config rooted in a temp dir,
// and returns a command whose output is captured.
func setupCmdTest(t *testing.T) (*cobra.Command, *bytes.Buffer) {
	t.Helper()
	savedLogger, savedCfg := logger, cfg
	t.Cleanup(func() { logger, cfg = savedLogger, savedCfg })

	logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	home := t.TempDir()
	cfg = &config.Config{HomeDir: home}
	cfg.Data.DataDir = home
	cfg.Parse.MaxFileBytes = config.DefaultMaxFileBytes

	var out bytes.Buffer
	c := &cobra.Command{}
	c.SetOut(&out)
	c.SetErr(io.Discard)
	c.SetContext(context.Background())
	return c, &out
}

func sampleMessage() []byte {
	b := msgtest.New()
	root := b.Root()
	root.Unicode("0037", "Quarterly numbers").
		Unicode("0C1A", "Ann Sender").
		Unicode("5D02", "ann@example.com").
		Unicode("0E04", "Bob").
		Unicode("1000", "See attached.").
		String8("001A", "IPM.Note")
	root.Recipient(0).Unicode("3001", "Bob").Unicode("39FE", "bob@example.com").String8("3002", "SMTP")
	root.Recipient(1).Unicode("3001", "Legacy").String8("3002", "EX")
	root.Attachment(0).
		Unicode("3707", "q3.csv").
		String8("370E", "text/csv").
		Binary("3701", []byte("a,b\n1,2\n"))
	root.Attachment(1).
		Unicode("3707", "fwd").
		EmbeddedMessage().Unicode("0037", "inner")
	return b.Bytes()
}

func TestPrintMessage(t *testing.T) {
	f, err := msg.NewReader(sampleMessage()).FileData()
	if err != nil {
		t.Fatalf("FileData: %v", err)
	}
	var buf bytes.Buffer
	if err := printMessage(&buf, f, newStyles(false)); err != nil {
		t.Fatalf("printMessage: %v", err)
	}
	out := buf.String()

	testutil.AssertContainsAll(t, out, []string{
		"Quarterly numbers\n",
		"From:    Ann Sender <ann@example.com>\n",
		"To:      Bob\n",
		"Class:   IPM.Note\n",
		"  • Bob <bob@example.com>\n",
		"  • Legacy [EX]\n",
		"  [0] q3.csv (text/csv, 8 B)\n",
		"  [1] fwd (embedded message)\n",
		"See attached.\n",
	})
	if strings.Contains(out, "\x1b[") {
		t.Errorf("output contains ANSI escapes without a terminal")
	}
}

func TestPrintMessage_Color(t *testing.T) {
	saved := lipgloss.ColorProfile()
	lipgloss.SetColorProfile(termenv.ANSI)
	defer lipgloss.SetColorProfile(saved)

	f, err := msg.NewReader(sampleMessage()).FileData()
	testutil.MustNoErr(t, err, "FileData")

	var colored, plain bytes.Buffer
	testutil.MustNoErr(t, printMessage(&colored, f, newStyles(true)), "print colored")
	testutil.MustNoErr(t, printMessage(&plain, f, newStyles(false)), "print plain")

	if !strings.Contains(colored.String(), "\x1b[") {
		t.Fatalf("colored output has no ANSI escapes:\n%s", colored.String())
	}
	if diff := cmp.Diff(plain.String(), ansi.Strip(colored.String())); diff != "" {
		t.Errorf("colored output differs beyond escapes (-plain +stripped):\n%s", diff)
	}
}

func TestPadRight(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"To:", 6, "To:   "},
		{"\x1b[1mTo:\x1b[0m", 6, "\x1b[1mTo:\x1b[0m   "},
		{"Recipients:", 4, "Reci"},
		{"日本", 6, "日本  "},
	}
	for _, tt := range tests {
		if got := padRight(tt.in, tt.width); got != tt.want {
			t.Errorf("padRight(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}

func TestPrintMessage_Empty(t *testing.T) {
	f, err := msg.NewReader(msgtest.New().Bytes()).FileData()
	if err != nil {
		t.Fatalf("FileData: %v", err)
	}
	var buf bytes.Buffer
	if err := printMessage(&buf, f, newStyles(false)); err != nil {
		t.Fatalf("printMessage: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "(no subject)\n") || !strings.Contains(out, "[No body content available]") {
		t.Errorf("output = %q", out)
	}
	if strings.Contains(out, "Attachments:") || strings.Contains(out, "Recipients:") {
		t.Errorf("empty sections printed:\n%s", out)
	}
}

func TestShowJSON(t *testing.T) {
	c, out := setupCmdTest(t)
	path := testutil.WriteFile(t, t.TempDir(), "a.msg", sampleMessage())

	showJSON = true
	defer func() { showJSON = false }()
	if err := showCmd.RunE(c, []string{path}); err != nil {
		t.Fatalf("show: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v\n%s", err, out.String())
	}
	if got["subject"] != "Quarterly numbers" {
		t.Errorf("subject = %v", got["subject"])
	}
}

func TestPrintContainer(t *testing.T) {
	r := msg.NewReader(sampleMessage())
	c, err := r.Container()
	if err != nil {
		t.Fatalf("Container: %v", err)
	}
	var buf bytes.Buffer
	printContainer(&buf, c)
	out := buf.String()

	testutil.AssertContainsAll(t, out, []string{
		"Sector size:       512\n",
		"[0] root\n",
		"  __attach_version1.0_#00000000  [",
		"    __substg1.0_3707001F  [",
		"  __recip_version1.0_#00000001  [",
	})
}

func TestSectorLabel(t *testing.T) {
	tests := []struct {
		n    uint32
		want string
	}{
		{0, "0"},
		{42, "42"},
		{0xFFFFFFFE, "end-of-chain"},
		{0xFFFFFFFF, "none"},
	}
	for _, tt := range tests {
		if got := sectorLabel(tt.n); got != tt.want {
			t.Errorf("sectorLabel(%#x) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestScanFiles(t *testing.T) {
	c, out := setupCmdTest(t)
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "b/good.MSG", sampleMessage())
	testutil.WriteFile(t, dir, "a/bad.msg", []byte("not a compound file"))
	testutil.WriteFile(t, dir, "notes.txt", []byte("ignored"))

	paths, err := findMsgFiles(dir)
	if err != nil {
		t.Fatalf("findMsgFiles: %v", err)
	}
	testutil.AssertStrings(t, paths, filepath.Join(dir, "a/bad.msg"), filepath.Join(dir, "b/good.MSG"))
	if len(paths) != 2 {
		t.FailNow()
	}

	results, err := scanFiles(c.Context(), paths, 4)
	if err != nil {
		t.Fatalf("scanFiles: %v", err)
	}
	if results[0].Err == nil {
		t.Errorf("bad.msg decoded without error")
	}
	if results[1].Err != nil || results[1].Subject != "Quarterly numbers" || results[1].Attachments != 2 || results[1].Recipients != 2 {
		t.Errorf("good.msg result = %+v", results[1])
	}

	if failed := printScanResults(out, results); failed != 1 {
		t.Errorf("failed = %d, want 1", failed)
	}
	if !strings.Contains(out.String(), "Scanned 2 file(s): 1 ok, 1 failed") {
		t.Errorf("summary missing:\n%s", out.String())
	}
}

func TestScanCmd_PrintsResults(t *testing.T) {
	c, out := setupCmdTest(t)
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "one.msg", sampleMessage())
	testutil.WriteFile(t, dir, "two.msg", sampleMessage())

	saved := scanJobs
	t.Cleanup(func() { scanJobs = saved })
	scanJobs = 2

	if err := scanCmd.RunE(c, []string{dir}); err != nil {
		t.Fatalf("scan: %v", err)
	}
	testutil.AssertContainsAll(t, out.String(), []string{
		"ok    " + filepath.Join(dir, "one.msg"),
		"ok    " + filepath.Join(dir, "two.msg"),
		"Scanned 2 file(s): 2 ok, 0 failed",
	})
}

func TestScanFiles_Canceled(t *testing.T) {
	setupCmdTest(t)
	path := testutil.WriteFile(t, t.TempDir(), "a.msg", sampleMessage())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := scanFiles(ctx, []string{path, path}, 1); err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func resetExportAttachmentFlags() {
	exportAttachmentOutput = ""
	exportAttachmentJSON = false
	exportAttachmentBase64 = false
	exportAttachmentForce = false
}

func TestExportAttachment_ToFile(t *testing.T) {
	c, _ := setupCmdTest(t)
	dir := t.TempDir()
	path := testutil.WriteFile(t, dir, "a.msg", sampleMessage())
	outFile := filepath.Join(dir, "out.csv")

	defer resetExportAttachmentFlags()
	exportAttachmentOutput = outFile
	if err := runExportAttachment(c, []string{path, "0"}); err != nil {
		t.Fatalf("export: %v", err)
	}
	testutil.AssertFileContent(t, outFile, "a,b\n1,2\n")

	if err := runExportAttachment(c, []string{path, "0"}); err == nil {
		t.Error("second export overwrote the file without --force")
	}
	exportAttachmentForce = true
	if err := runExportAttachment(c, []string{path, "0"}); err != nil {
		t.Errorf("export with --force: %v", err)
	}
}

func TestExportAttachment_JSONOutput(t *testing.T) {
	c, out := setupCmdTest(t)
	path := testutil.WriteFile(t, t.TempDir(), "a.msg", sampleMessage())

	defer resetExportAttachmentFlags()
	exportAttachmentJSON = true
	if err := runExportAttachment(c, []string{path, "0"}); err != nil {
		t.Fatalf("export: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := map[string]any{
		"index":       float64(0),
		"filename":    "q3.csv",
		"mime_type":   "text/csv",
		"size":        float64(8),
		"data_base64": base64.StdEncoding.EncodeToString([]byte("a,b\n1,2\n")),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("JSON (-want +got):\n%s", diff)
	}
}

func TestExportAttachment_Base64Output(t *testing.T) {
	c, out := setupCmdTest(t)
	path := testutil.WriteFile(t, t.TempDir(), "a.msg", sampleMessage())

	defer resetExportAttachmentFlags()
	exportAttachmentBase64 = true
	if err := runExportAttachment(c, []string{path, "0"}); err != nil {
		t.Fatalf("export: %v", err)
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(out.String()))
	if err != nil {
		t.Fatalf("decode base64: %v", err)
	}
	if string(decoded) != "a,b\n1,2\n" {
		t.Errorf("decoded = %q", decoded)
	}
}

func TestExportAttachment_Errors(t *testing.T) {
	c, _ := setupCmdTest(t)
	path := testutil.WriteFile(t, t.TempDir(), "a.msg", sampleMessage())
	defer resetExportAttachmentFlags()

	tests := []struct {
		name   string
		index  string
		errMsg string
	}{
		{"non-numeric", "x", "invalid attachment index"},
		{"negative", "-1", "invalid attachment index"},
		{"out of range", "9", "attachment"},
		{"embedded message", "1", "attachment"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := runExportAttachment(c, []string{path, tc.index})
			if err == nil || !strings.Contains(err.Error(), tc.errMsg) {
				t.Errorf("err = %v, want containing %q", err, tc.errMsg)
			}
		})
	}
}

func TestExportAttachment_FlagMutualExclusivity(t *testing.T) {
	tests := []struct {
		name   string
		output string
		json   bool
		base64 bool
		errMsg string
	}{
		{"json+base64", "", true, true, "--json and --base64 are mutually exclusive"},
		{"json+output", "file.bin", true, false, "--json and --output are mutually exclusive"},
		{"base64+output", "file.bin", false, true, "--base64 and --output are mutually exclusive"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			exportAttachmentOutput = tc.output
			exportAttachmentJSON = tc.json
			exportAttachmentBase64 = tc.base64
			defer resetExportAttachmentFlags()

			// Flag validation happens before the file is read.
			err := runExportAttachment(nil, []string{"missing.msg", "0"})
			if err == nil || !strings.Contains(err.Error(), tc.errMsg) {
				t.Errorf("err = %v, want containing %q", err, tc.errMsg)
			}
		})
	}
}

func TestExportAttachments_DefaultDir(t *testing.T) {
	c, out := setupCmdTest(t)
	path := testutil.WriteFile(t, t.TempDir(), "Quarterly Report.msg", sampleMessage())

	if err := runExportAttachments(c, []string{path}); err != nil {
		t.Fatalf("export: %v", err)
	}
	testutil.AssertFileContent(t, filepath.Join(cfg.AttachmentsDir(), "Quarterly Report", "q3.csv"), "a,b\n1,2\n")
	if !strings.Contains(out.String(), "Exported 1 attachment(s)") {
		t.Errorf("output = %q", out.String())
	}
}

func TestExportAttachments_Zip(t *testing.T) {
	c, out := setupCmdTest(t)
	dir := t.TempDir()
	path := testutil.WriteFile(t, dir, "a.msg", sampleMessage())

	exportAttachmentsZip = filepath.Join(dir, "out.zip")
	defer func() { exportAttachmentsZip = "" }()
	if err := runExportAttachments(c, []string{path}); err != nil {
		t.Fatalf("export: %v", err)
	}
	if diff := cmp.Diff(map[string]string{"q3.csv": "a,b\n1,2\n"}, testutil.ReadZip(t, exportAttachmentsZip)); diff != "" {
		t.Errorf("zip contents (-want +got):\n%s", diff)
	}
	if !strings.Contains(out.String(), "Exported 1 attachment(s)") {
		t.Errorf("output = %q", out.String())
	}

	exportAttachmentsDir = dir
	defer func() { exportAttachmentsDir = "" }()
	if err := runExportAttachments(c, []string{path}); err == nil {
		t.Error("--output with --zip accepted")
	}
}

func TestMessageBaseName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"/tmp/Invoice 42.msg", "Invoice 42"},
		{"report.MSG", "report"},
		{"noext", "noext"},
		{"/tmp/.msg", "message"},
	}
	for _, tt := range tests {
		if got := messageBaseName(tt.in); got != tt.want {
			t.Errorf("messageBaseName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExportEML(t *testing.T) {
	c, out := setupCmdTest(t)
	path := testutil.WriteFile(t, t.TempDir(), "a.msg", sampleMessage())

	if err := exportEMLCmd.RunE(c, []string{path}); err != nil {
		t.Fatalf("export-eml: %v", err)
	}
	testutil.AssertContainsAll(t, out.String(), []string{"Subject: Quarterly numbers", "ann@example.com", "q3.csv"})
}

func TestOpenMessage_TooLarge(t *testing.T) {
	setupCmdTest(t)
	cfg.Parse.MaxFileBytes = 16
	path := testutil.WriteFile(t, t.TempDir(), "a.msg", sampleMessage())

	_, err := openMessage(path)
	if err == nil || !strings.Contains(err.Error(), "limit 16") {
		t.Errorf("err = %v, want size limit error", err)
	}
}
