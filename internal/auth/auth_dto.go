package auth

// TokenRequest memverifikasi identitas lewat pasangan email + nomor telepon.
// Telepon adalah identitas kanal messaging karyawan, jadi keduanya harus
// cocok dengan data employee.
type TokenRequest struct {
	Email string `json:"email" binding:"required,email"`
	Phone string `json:"phone" binding:"required,min=8,max=30"`
}

type TokenEmployee struct {
	ID             string `json:"id"`
	EmployeeNumber string `json:"employee_number"`
	FullName       string `json:"full_name"`
	Team           string `json:"team"`
	Role           string `json:"role"`
}

type TokenResponse struct {
	AccessToken string        `json:"access_token"`
	TokenType   string        `json:"token_type"`
	ExpiresIn   int64         `json:"expires_in"`
	Employee    TokenEmployee `json:"employee"`
}
