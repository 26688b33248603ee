package models

import (
	dErrors "verifdesk/pkg/domain-errors"
)

// DocumentType is the kind of civil document a request is about.
type DocumentType string

const (
	DocumentTypeNationalID     DocumentType = "cni"
	DocumentTypePassport       DocumentType = "passport"
	DocumentTypeBirthCert      DocumentType = "birth_cert"
	DocumentTypeResidence      DocumentType = "residence"
	DocumentTypeDrivingLicense DocumentType = "driving"
	DocumentTypeMarriageCert   DocumentType = "marriage"
	DocumentTypeDeathCert      DocumentType = "death"
	DocumentTypeOther          DocumentType = "other"
)

var documentTypeLabels = map[DocumentType]string{
	DocumentTypeNationalID:     "Carte Nationale d'Identité",
	DocumentTypePassport:       "Passeport",
	DocumentTypeBirthCert:      "Acte de Naissance",
	DocumentTypeResidence:      "Certificat de Résidence",
	DocumentTypeDrivingLicense: "Permis de Conduire",
	DocumentTypeMarriageCert:   "Acte de Mariage",
	DocumentTypeDeathCert:      "Acte de Décès",
	DocumentTypeOther:          "Autre Document",
}

func ParseDocumentType(s string) (DocumentType, error) {
	dt := DocumentType(s)
	if _, ok := documentTypeLabels[dt]; !ok {
		return "", dErrors.New(dErrors.CodeValidation, "invalid document type: "+s)
	}
	return dt, nil
}

func (d DocumentType) Label() string { return documentTypeLabels[d] }

// RiskLevel is assigned upstream by risk scoring and only read here.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// riskSeverity ranks levels so that ascending order shows the most severe first.
var riskSeverity = map[RiskLevel]int{
	RiskCritical: 0,
	RiskHigh:     1,
	RiskMedium:   2,
	RiskLow:      3,
}

var riskLabels = map[RiskLevel]string{
	RiskLow:      "Faible",
	RiskMedium:   "Moyen",
	RiskHigh:     "Élevé",
	RiskCritical: "Critique",
}

func ParseRiskLevel(s string) (RiskLevel, error) {
	rl := RiskLevel(s)
	if _, ok := riskSeverity[rl]; !ok {
		return "", dErrors.New(dErrors.CodeValidation, "invalid risk level: "+s)
	}
	return rl, nil
}

// Severity returns 0 for critical through 3 for low. Unknown levels sort last.
func (r RiskLevel) Severity() int {
	if sev, ok := riskSeverity[r]; ok {
		return sev
	}
	return len(riskSeverity)
}

func (r RiskLevel) Label() string { return riskLabels[r] }

// Source is the intake channel of a request.
type Source string

const (
	SourceOnline   Source = "online"
	SourceInPerson Source = "in_person"
	SourceAgent    Source = "agent"
)

func ParseSource(s string) (Source, error) {
	switch src := Source(s); src {
	case SourceOnline, SourceInPerson, SourceAgent:
		return src, nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "invalid source: "+s)
}

// CheckMethod is how a verification check was performed.
type CheckMethod string

const (
	CheckBiometric  CheckMethod = "biometric"
	CheckDatabase   CheckMethod = "database"
	CheckAIAssisted CheckMethod = "ai_assisted"
	CheckManual     CheckMethod = "manual"
)

func ParseCheckMethod(s string) (CheckMethod, error) {
	switch m := CheckMethod(s); m {
	case CheckBiometric, CheckDatabase, CheckAIAssisted, CheckManual:
		return m, nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "invalid check method: "+s)
}

type CheckResult string

const (
	CheckPass         CheckResult = "pass"
	CheckFail         CheckResult = "fail"
	CheckPending      CheckResult = "pending"
	CheckInconclusive CheckResult = "inconclusive"
)

func ParseCheckResult(s string) (CheckResult, error) {
	switch r := CheckResult(s); r {
	case CheckPass, CheckFail, CheckPending, CheckInconclusive:
		return r, nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "invalid check result: "+s)
}

// NoteType categorizes a note for display.
type NoteType string

const (
	NoteInfo           NoteType = "info"
	NoteWarning        NoteType = "warning"
	NoteActionRequired NoteType = "action_required"
)

func ParseNoteType(s string) (NoteType, error) {
	switch nt := NoteType(s); nt {
	case NoteInfo, NoteWarning, NoteActionRequired:
		return nt, nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "invalid note type: "+s)
}

type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
)

func ParseGender(s string) (Gender, error) {
	switch g := Gender(s); g {
	case GenderMale, GenderFemale:
		return g, nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "invalid gender: "+s)
}
