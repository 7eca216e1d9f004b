// Package upload 는 문서 묶음을 검증하고 인코딩해 업로드 엔드포인트로 제출한다.
// 대화 상태와는 무관하다.
package upload

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"employee-assistant/cmd/assistant/apperr"
	"employee-assistant/cmd/assistant/clients/assistantclient"
	"employee-assistant/cmd/internal/logger"
)

const op = "upload"

// File 은 업로드할 문서 하나다. MimeType 이 비어 있으면 확장자로 정한다.
type File struct {
	Name     string
	MimeType string
	Content  []byte
}

type Receipt struct {
	Folder    Folder
	FileNames []string
	Message   string
}

type Uploader interface {
	Upload(ctx context.Context, req assistantclient.UploadRequest) (assistantclient.UploadResponse, error)
}

var mimeTypes = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

type Orchestrator struct {
	uploader Uploader
}

func NewOrchestrator(uploader Uploader) *Orchestrator {
	return &Orchestrator{uploader: uploader}
}

// Submit 은 폴더와 파일을 모두 검증한 뒤에만 요청을 보낸다.
func (o *Orchestrator) Submit(ctx context.Context, folder string, files []File) (Receipt, error) {
	f, ok := ParseFolder(folder)
	if !ok {
		return Receipt{}, apperr.Validation(op, fmt.Sprintf("Invalid folder %q. Choose one of: %s", folder, folderNames()))
	}
	if len(files) == 0 {
		return Receipt{}, apperr.Validation(op, "Please select at least one file to upload")
	}

	encoded := make([]assistantclient.UploadFile, 0, len(files))
	names := make([]string, 0, len(files))
	for _, file := range files {
		mime, err := mimeFor(file)
		if err != nil {
			return Receipt{}, err
		}
		encoded = append(encoded, assistantclient.UploadFile{
			Name:    file.Name,
			Type:    mime,
			Content: dataURL(mime, file.Content),
		})
		names = append(names, file.Name)
	}

	resp, err := o.uploader.Upload(ctx, assistantclient.UploadRequest{Folder: string(f), Files: encoded})
	if err != nil {
		return Receipt{}, err
	}

	receipt := Receipt{Folder: f, FileNames: names, Message: resp.Message}
	if len(resp.Files) > 0 {
		receipt.FileNames = resp.Files
	}
	logger.InfoWithFields("documents uploaded", logger.Fields{
		"folder": f.WireName(),
		"files":  len(receipt.FileNames),
	})
	return receipt, nil
}

// ReadFiles 는 경로 목록을 File 로 읽는다. CLI 에서 쓴다.
func ReadFiles(paths []string) ([]File, error) {
	files := make([]File, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, apperr.Validation(op, fmt.Sprintf("cannot read %s: %v", p, err))
		}
		files = append(files, File{Name: filepath.Base(p), Content: data})
	}
	return files, nil
}

// ConfirmationText 는 업로드 후 대화 로그에 붙일 안내 문구다.
func ConfirmationText(r Receipt) string {
	return fmt.Sprintf("Uploaded %d file(s) to %s: %s. They will be available once ingestion finishes.",
		len(r.FileNames), r.Folder, strings.Join(r.FileNames, ", "))
}

func mimeFor(file File) (string, error) {
	ext := strings.ToLower(filepath.Ext(file.Name))
	derived, ok := mimeTypes[ext]
	if strings.TrimSpace(file.Name) == "" || !ok {
		return "", apperr.Validation(op, fmt.Sprintf("Unsupported file %q. Only PDF, DOC and DOCX files are allowed", file.Name))
	}
	if file.MimeType != "" {
		return file.MimeType, nil
	}
	return derived, nil
}

func dataURL(mime string, content []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(content)
}

func folderNames() string {
	names := make([]string, len(Folders))
	for i, f := range Folders {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}
