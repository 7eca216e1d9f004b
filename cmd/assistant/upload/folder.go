package upload

import (
	"strings"
)

// Folder 는 업로드 대상 지식 베이스 폴더다.
type Folder string

const (
	FolderHR         Folder = "HR"
	FolderITHelpdesk Folder = "IT Helpdesk"
	FolderBenefits   Folder = "Benefits"
	FolderPayroll    Folder = "Payroll"
	FolderTraining   Folder = "Training"
)

var Folders = []Folder{FolderHR, FolderITHelpdesk, FolderBenefits, FolderPayroll, FolderTraining}

// ParseFolder 는 표시 이름(대소문자 무시) 또는 서버 쪽 이름(it_helpdesk)을 받아들인다.
func ParseFolder(name string) (Folder, bool) {
	name = strings.TrimSpace(name)
	for _, f := range Folders {
		if strings.EqualFold(name, string(f)) || strings.EqualFold(name, f.WireName()) {
			return f, true
		}
	}
	return "", false
}

// WireName 은 백엔드가 정규화하는 형태(소문자, 공백은 _)다.
func (f Folder) WireName() string {
	return strings.ReplaceAll(strings.ToLower(string(f)), " ", "_")
}
