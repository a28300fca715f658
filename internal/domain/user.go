package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is an account record. PasswordHash is empty for accounts created
// through Google sign-in that never set a password.
type User struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name          string             `bson:"name" json:"name"`
	Username      string             `bson:"username" json:"username"`
	Email         string             `bson:"email" json:"email"`
	PasswordHash  string             `bson:"password_hash,omitempty" json:"-"`
	GoogleID      string             `bson:"google_id,omitempty" json:"googleId,omitempty"`
	EmailVerified bool               `bson:"email_verified" json:"emailVerified"`
	CreatedAt     time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updatedAt"`
}

// HasPassword reports whether the account can authenticate with credentials.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// QuizAnswer is one raw quiz answer kept on the profile for reference.
type QuizAnswer struct {
	QuestionID     int    `bson:"question_id" json:"questionId"`
	SelectedOption string `bson:"selected_option" json:"selectedOption"`
}

// ProductSelection is a product the user picked for a routine slot. The
// (Category, DayTime) pair is the slot key: a profile holds at most one
// selection per key.
type ProductSelection struct {
	Category  Category `bson:"category" json:"category"`
	ProductID string   `bson:"product_id" json:"productId"`
	DayTime   DayTime  `bson:"day_time" json:"dayTime"`
}

// Profile holds a user's derived skin type, concerns, raw quiz answers and
// product selections. One profile per user.
type Profile struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID           primitive.ObjectID `bson:"user_id" json:"userId"`
	SkinType         SkinType           `bson:"skin_type" json:"skinType"`
	Concerns         []Concern          `bson:"concerns" json:"concerns"`
	QuizAnswers      []QuizAnswer       `bson:"quiz_answers" json:"quizAnswers"`
	SelectedProducts []ProductSelection `bson:"selected_products" json:"selectedProducts"`
	CreatedAt        time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updated_at" json:"updatedAt"`
}
