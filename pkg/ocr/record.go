package ocr

import "image"

// Field names a LicenseRecord attribute. Values match the JSON keys.
type Field string

const (
	FieldLicenseNumber       Field = "licenseNumber"
	FieldHolderName          Field = "holderName"
	FieldFatherOrHusbandName Field = "fatherOrHusbandName"
	FieldAddress             Field = "address"
	FieldDateOfBirth         Field = "dateOfBirth"
	FieldIssueDate           Field = "issueDate"
	FieldExpiryDate          Field = "expiryDate"
	FieldCitizenshipNo       Field = "citizenshipNo"
	FieldPassportNo          Field = "passportNo"
	FieldPhoneNo             Field = "phoneNo"
	FieldBloodGroup          Field = "bloodGroup"
	FieldCategory            Field = "category"
	FieldIssuingAuthority    Field = "issuingAuthority"
)

// AllFields lists every field in canonical order.
var AllFields = []Field{
	FieldLicenseNumber,
	FieldHolderName,
	FieldFatherOrHusbandName,
	FieldAddress,
	FieldDateOfBirth,
	FieldIssueDate,
	FieldExpiryDate,
	FieldCitizenshipNo,
	FieldPassportNo,
	FieldPhoneNo,
	FieldBloodGroup,
	FieldCategory,
	FieldIssuingAuthority,
}

// LicenseRecord is a partial driving-license record. An empty string means the field is absent.
type LicenseRecord struct {
	LicenseNumber       string `json:"licenseNumber,omitempty"`
	HolderName          string `json:"holderName,omitempty"`
	FatherOrHusbandName string `json:"fatherOrHusbandName,omitempty"`
	Address             string `json:"address,omitempty"`
	DateOfBirth         string `json:"dateOfBirth,omitempty"`
	IssueDate           string `json:"issueDate,omitempty"`
	ExpiryDate          string `json:"expiryDate,omitempty"`
	CitizenshipNo       string `json:"citizenshipNo,omitempty"`
	PassportNo          string `json:"passportNo,omitempty"`
	PhoneNo             string `json:"phoneNo,omitempty"`
	BloodGroup          string `json:"bloodGroup,omitempty"`
	Category            string `json:"category,omitempty"`
	IssuingAuthority    string `json:"issuingAuthority,omitempty"`
}

func (r *LicenseRecord) ptr(f Field) *string {
	switch f {
	case FieldLicenseNumber:
		return &r.LicenseNumber
	case FieldHolderName:
		return &r.HolderName
	case FieldFatherOrHusbandName:
		return &r.FatherOrHusbandName
	case FieldAddress:
		return &r.Address
	case FieldDateOfBirth:
		return &r.DateOfBirth
	case FieldIssueDate:
		return &r.IssueDate
	case FieldExpiryDate:
		return &r.ExpiryDate
	case FieldCitizenshipNo:
		return &r.CitizenshipNo
	case FieldPassportNo:
		return &r.PassportNo
	case FieldPhoneNo:
		return &r.PhoneNo
	case FieldBloodGroup:
		return &r.BloodGroup
	case FieldCategory:
		return &r.Category
	case FieldIssuingAuthority:
		return &r.IssuingAuthority
	}
	return nil
}

// Get returns the value of f, or "" for unknown fields.
func (r LicenseRecord) Get(f Field) string {
	if p := r.ptr(f); p != nil {
		return *p
	}
	return ""
}

// Set assigns v to f. Unknown fields are ignored.
func (r *LicenseRecord) Set(f Field, v string) {
	if p := r.ptr(f); p != nil {
		*p = v
	}
}

// Delete clears f.
func (r *LicenseRecord) Delete(f Field) { r.Set(f, "") }

// setIfEmpty assigns v to f only when f is still empty. It reports whether it wrote.
func (r *LicenseRecord) setIfEmpty(f Field, v string) bool {
	if v == "" || r.Get(f) != "" {
		return false
	}
	r.Set(f, v)
	return true
}

// Count returns the number of populated fields.
func (r LicenseRecord) Count() int {
	n := 0
	for _, f := range AllFields {
		if r.Get(f) != "" {
			n++
		}
	}
	return n
}

// Empty reports whether no field is populated.
func (r LicenseRecord) Empty() bool { return r.Count() == 0 }

// Token is one recognized word or line with its confidence (0..1) and pixel box.
type Token struct {
	Text       string          `json:"text"`
	Confidence float64         `json:"confidence"`
	Box        image.Rectangle `json:"box"`
}

// RecognitionResult is the raw output of one recognition pass.
type RecognitionResult struct {
	Profile    string  `json:"profile"`
	Text       string  `json:"text"`
	Words      []Token `json:"words,omitempty"`
	Lines      []Token `json:"lines,omitempty"`
	Confidence float64 `json:"confidence"`
}

// Image is an in-memory upload.
type Image struct {
	Data     []byte
	MIMEType string
}
