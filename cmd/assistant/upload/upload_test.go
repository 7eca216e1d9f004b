package upload

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"employee-assistant/cmd/assistant/apperr"
	"employee-assistant/cmd/assistant/clients/assistantclient"
)

type fakeUploader struct {
	calls int
	got   assistantclient.UploadRequest
	resp  assistantclient.UploadResponse
	err   error
}

func (f *fakeUploader) Upload(_ context.Context, req assistantclient.UploadRequest) (assistantclient.UploadResponse, error) {
	f.calls++
	f.got = req
	return f.resp, f.err
}

func TestParseFolder(t *testing.T) {
	testCases := []struct {
		in   string
		want Folder
		ok   bool
	}{
		{in: "HR", want: FolderHR, ok: true},
		{in: "hr", want: FolderHR, ok: true},
		{in: "IT Helpdesk", want: FolderITHelpdesk, ok: true},
		{in: "it helpdesk", want: FolderITHelpdesk, ok: true},
		{in: "it_helpdesk", want: FolderITHelpdesk, ok: true},
		{in: " Payroll ", want: FolderPayroll, ok: true},
		{in: "Legal", ok: false},
		{in: "", ok: false},
	}

	for _, testCase := range testCases {
		t.Run(testCase.in, func(t *testing.T) {
			got, ok := ParseFolder(testCase.in)
			assert.Equal(t, testCase.ok, ok)
			assert.Equal(t, testCase.want, got)
		})
	}
	assert.Equal(t, "it_helpdesk", FolderITHelpdesk.WireName())
}

func TestSubmitValidatesBeforeNetwork(t *testing.T) {
	testCases := []struct {
		name   string
		folder string
		files  []File
	}{
		{name: "unknown folder", folder: "Legal", files: []File{{Name: "a.pdf"}}},
		{name: "executable", folder: "HR", files: []File{{Name: "setup.exe"}}},
		{name: "one bad file in batch", folder: "HR", files: []File{{Name: "a.pdf"}, {Name: "b.txt"}}},
		{name: "no extension", folder: "HR", files: []File{{Name: "README"}}},
		{name: "no files", folder: "HR"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			uploader := &fakeUploader{}
			_, err := NewOrchestrator(uploader).Submit(context.Background(), testCase.folder, testCase.files)
			assert.ErrorIs(t, err, apperr.ErrValidation)
			assert.Equal(t, 0, uploader.calls)
		})
	}
}

func TestSubmitEncodesDataURLs(t *testing.T) {
	uploader := &fakeUploader{resp: assistantclient.UploadResponse{Success: true, Message: "Successfully uploaded 2 file(s)"}}

	receipt, err := NewOrchestrator(uploader).Submit(context.Background(), "it helpdesk", []File{
		{Name: "VPN.PDF", Content: []byte("%PDF")},
		{Name: "policy.docx", MimeType: "application/custom", Content: []byte("hi")},
	})
	require.NoError(t, err)

	assert.Equal(t, "IT Helpdesk", uploader.got.Folder)
	require.Len(t, uploader.got.Files, 2)
	assert.Equal(t, assistantclient.UploadFile{
		Name:    "VPN.PDF",
		Type:    "application/pdf",
		Content: "data:application/pdf;base64,JVBERg==",
	}, uploader.got.Files[0])
	assert.Equal(t, "data:application/custom;base64,aGk=", uploader.got.Files[1].Content)

	assert.Equal(t, FolderITHelpdesk, receipt.Folder)
	assert.Equal(t, []string{"VPN.PDF", "policy.docx"}, receipt.FileNames)
	assert.Contains(t, ConfirmationText(receipt), "Uploaded 2 file(s) to IT Helpdesk")
}

func TestSubmitPropagatesClientError(t *testing.T) {
	uploader := &fakeUploader{err: apperr.FromStatus("upload", 400, "No valid files were uploaded")}

	_, err := NewOrchestrator(uploader).Submit(context.Background(), "HR", []File{{Name: "a.doc"}})
	assert.ErrorIs(t, err, apperr.ErrRejected)
	assert.Equal(t, "No valid files were uploaded", apperr.Describe(err))
}

func TestReadFiles(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "handbook.pdf")
	require.NoError(t, os.WriteFile(p, []byte("data"), 0o644))

	files, err := ReadFiles([]string{p})
	require.NoError(t, err)
	assert.Equal(t, []File{{Name: "handbook.pdf", Content: []byte("data")}}, files)

	_, err = ReadFiles([]string{filepath.Join(dir, "missing.pdf")})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
