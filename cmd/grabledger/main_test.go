package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"os"
	"strings"
	"testing"

	"github.com/ArionMiles/grabledger/pkg/imaptest"
	"github.com/ArionMiles/grabledger/pkg/mailbox"
	"github.com/ArionMiles/grabledger/pkg/report"
)

const fixture = "../../pkg/reader/grab/testdata/receipts.mbox"

func TestRunReport_CSV(t *testing.T) {
	var out bytes.Buffer
	opts := runOptions{format: "csv", mbox: fixture}
	if err := runReport(context.Background(), &out, opts, nil); err != nil {
		t.Fatalf("runReport: %v", err)
	}

	want := "no.,date,grab_bike,grab_food,total\n" +
		"1,2023-08-01,15000,0,15000\n" +
		"2,2023-08-02,0,20000,20000\n" +
		"3,2023-08-03,0,0,0\n"
	if got := out.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRunReport_Range(t *testing.T) {
	var out bytes.Buffer
	opts := runOptions{start: "2023-08-02", end: "2023-08-02", format: "json", mbox: fixture}
	if err := runReport(context.Background(), &out, opts, nil); err != nil {
		t.Fatalf("runReport: %v", err)
	}

	var got report.Report
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if len(got.Rows) != 1 || got.Rows[0].Food != 20000 {
		t.Errorf("rows: got %+v", got.Rows)
	}
	if got.Summary.FoodAverage != "Rp 20,000" {
		t.Errorf("food average: got %s", got.Summary.FoodAverage)
	}
}

func TestRunReport_Text(t *testing.T) {
	var out bytes.Buffer
	if err := runReport(context.Background(), &out, runOptions{format: "text", mbox: fixture}, nil); err != nil {
		t.Fatalf("runReport: %v", err)
	}

	got := out.String()
	for _, want := range []string{"Transactions 2023-08-01 to 2023-08-03", "Total (GB+GF)", "Rp 35,000"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestRunReport_Errors(t *testing.T) {
	tests := []struct {
		name string
		opts runOptions
	}{
		{"unknown format", runOptions{format: "xml", mbox: fixture}},
		{"malformed start", runOptions{format: "text", start: "August", mbox: fixture}},
		{"malformed end", runOptions{format: "text", end: "2023-8-1", mbox: fixture}},
		{"missing mbox", runOptions{format: "text", mbox: "testdata/none.mbox"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			if err := runReport(context.Background(), &out, tc.opts, nil); err == nil {
				t.Error("expected error")
			}
			if out.Len() != 0 {
				t.Errorf("wrote output on failure: %q", out.String())
			}
		})
	}
}

func TestRootCmd_Run(t *testing.T) {
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"run", "--mbox", fixture, "--format", "csv", "--start", "2023-08-03"})

	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got := out.String(); got != "no.,date,grab_bike,grab_food,total\n1,2023-08-03,0,0,0\n" {
		t.Errorf("got %q", got)
	}
}

func TestRootCmd_UnknownCommand(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"export"})

	if err := root.Execute(); err == nil {
		t.Error("expected error for an unknown command")
	}
}

func TestCheckMailbox(t *testing.T) {
	srv := imaptest.Start(t)

	var out bytes.Buffer
	if ok := checkMailbox(context.Background(), &out, mailbox.Config{Client: srv.Config()}, nil); !ok {
		t.Fatalf("checks failed:\n%s", out.String())
	}
	for _, want := range []string{"Connect (" + srv.Addr() + "): ✓", "Login (" + imaptest.Username + "): ✓", "Folder (Inbox): ✓", "GrabBike receipts: ✓ 0 found"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestCheckMailbox_Failures(t *testing.T) {
	srv := imaptest.Start(t)

	badPassword := mailbox.Config{Client: srv.Config()}
	badPassword.Client.Password = "wrong"

	badFolder := mailbox.Config{Client: srv.Config(), Mailbox: "Receipts"}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	closed := mailbox.Config{Client: srv.Config()}
	closed.Client.Port = ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	tests := []struct {
		name string
		cfg  mailbox.Config
		want string
	}{
		{"refused", closed, "Connect (127.0.0.1:"},
		{"wrong password", badPassword, "Login (" + imaptest.Username + "): ✗"},
		{"unknown folder", badFolder, "Folder (Receipts): ✗"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			if ok := checkMailbox(context.Background(), &out, tc.cfg, nil); ok {
				t.Fatalf("expected failure:\n%s", out.String())
			}
			if !strings.Contains(out.String(), tc.want) || !strings.Contains(out.String(), "✗") {
				t.Errorf("output missing %q:\n%s", tc.want, out.String())
			}
			if strings.Contains(out.String(), imaptest.Password) {
				t.Errorf("password printed:\n%s", out.String())
			}
		})
	}
}

func TestRunStatus_MissingConfig(t *testing.T) {
	for _, k := range []string{"MAIL_ACCOUNT", "MAIL_PASSCODE"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	t.Chdir(t.TempDir())

	var out bytes.Buffer
	if ok := runStatus(context.Background(), &out, nil); ok {
		t.Fatal("expected status to fail without credentials")
	}
	got := out.String()
	if !strings.Contains(got, "Configuration: ✗") || !strings.Contains(got, "MAIL_ACCOUNT") {
		t.Errorf("got:\n%s", got)
	}
	if strings.Contains(got, "Mailbox access") {
		t.Errorf("mailbox checked without configuration:\n%s", got)
	}
}
