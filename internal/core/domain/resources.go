package domain

// Pagination is the page metadata returned by paginated list endpoints.
type Pagination struct {
	Total       int  `json:"total"`
	Page        int  `json:"page"`
	TotalPages  int  `json:"total_pages"`
	PageSize    int  `json:"page_size"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
}

// ListMeta is the lighter page metadata used by divisions and recruitments.
type ListMeta struct {
	Total     int `json:"total"`
	Page      int `json:"page"`
	Limit     int `json:"limit"`
	TotalPage int `json:"total_page"`
}

// User is a member record as managed by the console.
type User struct {
	ID           string       `json:"id"`
	Nama         string       `json:"nama"`
	Username     string       `json:"username"`
	Email        string       `json:"email"`
	NomorTelepon string       `json:"nomor_telepon,omitempty"`
	Alamat       string       `json:"alamat,omitempty"`
	Angkatan     int          `json:"angkatan,omitempty"`
	Status       UserStatus   `json:"status"`
	AvatarURL    string       `json:"avatar_url,omitempty"`
	Division     *DivisionRef `json:"division,omitempty"`
	Roles        []RoleRef    `json:"roles,omitempty"`
	CreatedAt    string       `json:"created_at,omitempty"`
	UpdatedAt    string       `json:"updated_at,omitempty"`
}

// UserStatistics aggregates membership counts.
type UserStatistics struct {
	TotalUsers      int             `json:"total_users"`
	ActiveUsers     int             `json:"active_users"`
	InactiveUsers   int             `json:"inactive_users"`
	AlumniUsers     int             `json:"alumni_users"`
	UsersByDivision []DivisionShare `json:"users_by_division"`
	UsersByAngkatan map[string]int  `json:"users_by_angkatan"`
	UsersByStatus   map[string]int  `json:"users_by_status"`
}

// DivisionShare is one row of the per-division membership breakdown.
type DivisionShare struct {
	DivisionID   string `json:"division_id"`
	DivisionName string `json:"division_name"`
	UserCount    int    `json:"user_count"`
	Percentage   string `json:"percentage"`
}

// Division groups members.
type Division struct {
	ID         string `json:"id"`
	NamaDivisi string `json:"nama_divisi"`
	Deskripsi  string `json:"deskripsi,omitempty"`
	CreatedAt  string `json:"created_at,omitempty"`
	UpdatedAt  string `json:"updated_at,omitempty"`
}

// DivisionStats summarises membership of a single division.
type DivisionStats struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	MemberCount       int    `json:"member_count"`
	ActiveMemberCount int    `json:"active_member_count"`
	AlumniMemberCount int    `json:"alumni_member_count"`
}

// RoleRecord is a role as managed through the roles endpoints.
type RoleRecord struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
	CreatedAt   string   `json:"created_at,omitempty"`
	UpdatedAt   string   `json:"updated_at,omitempty"`
}

// Activity is a programme run by the organisation.
type Activity struct {
	ID         string `json:"id"`
	Judul      string `json:"judul"`
	Deskripsi  string `json:"deskripsi,omitempty"`
	Lokasi     string `json:"lokasi,omitempty"`
	Tanggal    string `json:"tanggal,omitempty"`
	Status     string `json:"status,omitempty"`
	DivisionID string `json:"division_id,omitempty"`
	CreatedAt  string `json:"created_at,omitempty"`
	UpdatedAt  string `json:"updated_at,omitempty"`
}

// ProgressReport tracks the progress of an activity.
type ProgressReport struct {
	ID         string `json:"id"`
	ActivityID string `json:"activity_id"`
	Judul      string `json:"judul"`
	Deskripsi  string `json:"deskripsi,omitempty"`
	Persentase int    `json:"persentase"`
	Tanggal    string `json:"tanggal,omitempty"`
	CreatedAt  string `json:"created_at,omitempty"`
}

// Documentation is a media record attached to an activity.
type Documentation struct {
	ID         string `json:"id"`
	ActivityID string `json:"activity_id"`
	Judul      string `json:"judul,omitempty"`
	URL        string `json:"url"`
	CreatedAt  string `json:"created_at,omitempty"`
}

// LPJ is the accountability report (laporan pertanggungjawaban) of an activity.
type LPJ struct {
	ID         string `json:"id"`
	ActivityID string `json:"activity_id"`
	FileURL    string `json:"file_url"`
	Catatan    string `json:"catatan,omitempty"`
	CreatedAt  string `json:"created_at,omitempty"`
}

// DonationStatus enumerates verification states of a donation.
type DonationStatus string

const (
	DonationPending  DonationStatus = "pending"
	DonationVerified DonationStatus = "verified"
	DonationRejected DonationStatus = "rejected"
	DonationCanceled DonationStatus = "canceled"
)

// Donation is a recorded contribution.
type Donation struct {
	ID              string         `json:"id"`
	NamaDonatur     string         `json:"nama_donatur"`
	Jumlah          float64        `json:"jumlah"`
	Tanggal         string         `json:"tanggal,omitempty"`
	Metode          string         `json:"metode"`
	Deskripsi       string         `json:"deskripsi,omitempty"`
	Status          DonationStatus `json:"status"`
	BuktiPembayaran string         `json:"bukti_pembayaran,omitempty"`
	CreatedAt       string         `json:"created_at,omitempty"`
	UpdatedAt       string         `json:"updated_at,omitempty"`
}

// DonationStats aggregates donation amounts.
type DonationStats struct {
	TotalDonations int     `json:"total_donations"`
	TotalAmount    float64 `json:"total_amount"`
	PendingAmount  float64 `json:"pending_amount"`
	VerifiedAmount float64 `json:"verified_amount"`
}

// Asset is an inventory item.
type Asset struct {
	ID        string `json:"id"`
	Nama      string `json:"nama"`
	Kode      string `json:"kode"`
	Deskripsi string `json:"deskripsi,omitempty"`
	Lokasi    string `json:"lokasi"`
	Jumlah    int    `json:"jumlah"`
	Available int    `json:"available"`
	Tanggal   string `json:"tanggal,omitempty"`
	Kondisi   string `json:"kondisi"`
	FotoURL   string `json:"foto_url,omitempty"`
	Loans     []Loan `json:"loans,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// Loan records an asset lent to a member.
type Loan struct {
	ID             string `json:"id"`
	AssetID        string `json:"asset_id"`
	UserID         string `json:"user_id"`
	TanggalPinjam  string `json:"tanggal_pinjam"`
	TanggalKembali string `json:"tanggal_kembali,omitempty"`
	Status         string `json:"status"`
	Catatan        string `json:"catatan,omitempty"`
	CreatedAt      string `json:"created_at,omitempty"`
	UpdatedAt      string `json:"updated_at,omitempty"`
}

// Recruitment is an open call for new members.
type Recruitment struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description,omitempty"`
	StartDate    string   `json:"start_date"`
	EndDate      string   `json:"end_date"`
	Status       string   `json:"status"`
	Requirements []string `json:"requirements,omitempty"`
	CreatedAt    string   `json:"created_at,omitempty"`
	UpdatedAt    string   `json:"updated_at,omitempty"`
}

// Registrant is a member who applied to a recruitment.
type Registrant struct {
	ID            string `json:"id"`
	RecruitmentID string `json:"recruitment_id"`
	UserID        string `json:"user_id"`
	Status        string `json:"status"`
	Notes         string `json:"notes,omitempty"`
	User          *User  `json:"user,omitempty"`
	CreatedAt     string `json:"created_at,omitempty"`
	UpdatedAt     string `json:"updated_at,omitempty"`
}

// Document is an archived organisational file.
type Document struct {
	ID        string `json:"id"`
	Judul     string `json:"judul"`
	Kategori  string `json:"kategori,omitempty"`
	Deskripsi string `json:"deskripsi,omitempty"`
	FileURL   string `json:"file_url,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}
