package catalog

type User struct {
	ID        int64  `json:"id"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// StakeholderGroup is a department together with its members.
type StakeholderGroup struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Users []User `json:"users"`
}

type Process struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type DataType struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type QualityCriterion struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Guidelines  string `json:"guidelines"`
}
