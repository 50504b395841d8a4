package department

type Department struct {
	ID   int64  `gorm:"primaryKey"`
	Code string `gorm:"column:code;uniqueIndex;size:20;not null"`
	Name string `gorm:"column:name;size:100;not null"`
}

func (Department) TableName() string { return "departments" }
