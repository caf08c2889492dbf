package model

// DashboardStats 管理后台首页统计
type DashboardStats struct {
	TotalDonations     int     `json:"totalDonations"`
	TotalUsers         int     `json:"totalUsers"`
	ActiveUsers        int     `json:"activeUsers"`
	PendingDonations   int     `json:"pendingDonations"`
	CompletedDonations int     `json:"completedDonations"`
	TotalFunds         float64 `json:"totalFunds"`
	EstimatedMeals     int64   `json:"estimatedMeals"`
	MonthlyDonations   int     `json:"monthlyDonations"`
	DonationChange     int     `json:"donationChange"`
}

// GroupCount 按某个字段分组后的计数
type GroupCount struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// MonthlyCount 按年月分组的计数
type MonthlyCount struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Count int `json:"count"`
}

// TopDonor 捐赠排行
type TopDonor struct {
	ID                 int64    `json:"id"`
	Name               string   `json:"name"`
	Email              string   `json:"email"`
	UserType           UserType `json:"userType"`
	DonationsCount     int64    `json:"donationsCount"`
	TotalAmountDonated float64  `json:"totalAmountDonated"`
}

// DonationAnalytics 捐赠分析
type DonationAnalytics struct {
	ByType    []GroupCount   `json:"byType"`
	ByStatus  []GroupCount   `json:"byStatus"`
	Monthly   []MonthlyCount `json:"monthly"`
	TopDonors []TopDonor     `json:"topDonors"`
}
