package browse

type StructureResponse struct {
	Structure Structure      `json:"structure"`
	Tree      []TreeCategory `json:"tree"`
}

type RecentUploadResponse struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Category   string `json:"category"`
	UploadedBy string `json:"uploaded_by"`
	UploadedAt string `json:"uploaded_at"`
	Size       string `json:"size"`
}

type StatsResponse struct {
	TotalFiles       int64                  `json:"total_files"`
	CategoryCount    int64                  `json:"category_count"`
	StorageUsed      string                 `json:"storage_used"`
	StorageUsedBytes int64                  `json:"storage_used_bytes"`
	TodayUsers       int64                  `json:"today_users"`
	CategoryStats    []CategoryStat         `json:"category_stats"`
	RecentUploads    []RecentUploadResponse `json:"recent_uploads"`
}
