package department

type DepartmentResponse struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

type DepartmentsResponse struct {
	Departments []DepartmentResponse `json:"departments"`
}
