package department

import (
	"strings"

	"github.com/frahmantamala/medical-filemanager/internal"
	departmentDatamodel "github.com/frahmantamala/medical-filemanager/internal/core/datamodel/department"
)

type Code string

const (
	CodeNeonatal       Code = "NEONATAL"
	CodePediatric      Code = "PEDIATRIC"
	CodeEmergency      Code = "EMERGENCY"
	CodeSurgery        Code = "SURGERY"
	CodeLab            Code = "LAB"
	CodeRadiology      Code = "RADIOLOGY"
	CodeAdministration Code = "ADMINISTRATION"
)

var displayNames = map[Code]string{
	CodeNeonatal:       "Neonatal Care",
	CodePediatric:      "Pediatrics",
	CodeEmergency:      "Emergency",
	CodeSurgery:        "Surgery",
	CodeLab:            "Laboratory",
	CodeRadiology:      "Radiology",
	CodeAdministration: "Administration",
}

var (
	ErrInvalidDepartment  = internal.NewValidationFieldError("department", "Invalid department", internal.ErrCodeInvalidDepartment)
	ErrDepartmentNotFound = internal.NewNotFoundError("Department not found", internal.ErrCodeDepartmentNotFound)
)

// AllCodes returns the closed set of department codes in display order.
func AllCodes() []Code {
	return []Code{
		CodeNeonatal,
		CodePediatric,
		CodeEmergency,
		CodeSurgery,
		CodeLab,
		CodeRadiology,
		CodeAdministration,
	}
}

func ParseCode(raw string) (Code, error) {
	code := Code(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := displayNames[code]; !ok {
		return "", ErrInvalidDepartment
	}
	return code, nil
}

func (c Code) DisplayName() string {
	return displayNames[c]
}

func (c Code) IsValid() bool {
	_, ok := displayNames[c]
	return ok
}

type Department struct {
	ID   int64  `json:"id"`
	Code Code   `json:"code"`
	Name string `json:"name"`
}

// NewDepartment falls back to the code's display name when name is empty.
func NewDepartment(code Code, name string) *Department {
	if strings.TrimSpace(name) == "" {
		name = code.DisplayName()
	}
	return &Department{Code: code, Name: name}
}

func (d *Department) ToResponse() DepartmentResponse {
	return DepartmentResponse{
		ID:   d.ID,
		Code: string(d.Code),
		Name: d.Name,
	}
}

func ToDataModel(d *Department) *departmentDatamodel.Department {
	return &departmentDatamodel.Department{
		ID:   d.ID,
		Code: string(d.Code),
		Name: d.Name,
	}
}

func FromDataModel(d *departmentDatamodel.Department) *Department {
	return &Department{
		ID:   d.ID,
		Code: Code(d.Code),
		Name: d.Name,
	}
}
