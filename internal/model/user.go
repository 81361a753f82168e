package model

type User struct {
	BaseModel
	Email        string `db:"email" json:"email"`
	PasswordHash string `db:"password_hash" json:"-"`
	FullName     string `db:"full_name" json:"full_name"`
	Phone        string `db:"phone" json:"phone"`
	Address      string `db:"address" json:"address"`
	City         string `db:"city" json:"city"`
	State        string `db:"state" json:"state"`
	ZipCode      string `db:"zip_code" json:"zip_code"`
	Country      string `db:"country" json:"country"`
	AvatarURL    string `db:"avatar_url" json:"avatar_url"`
	IsAdmin      bool   `db:"is_admin" json:"is_admin"`
}
