package domain

import "time"

type Image struct {
	ImageURL string `json:"imageUrl"`
	PublicID string `json:"publicId"`
}

type Contact struct {
	ContactNo        string `json:"contactNo,omitempty"`
	EmergencyContact string `json:"emergencyContact,omitempty"`
	Address          string `json:"address,omitempty"`
}

type Social struct {
	Facebook string `json:"facebook,omitempty"`
	LinkedIn string `json:"linkedIn,omitempty"`
	Github   string `json:"github,omitempty"`
}

// Identity is the signed-in user as last reported by the backend.
// Role-specific fields stay empty for the other roles.
type Identity struct {
	ID         string     `json:"_id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Role       Role       `json:"role"`
	Phone      string     `json:"phone,omitempty"`
	Gender     string     `json:"gender,omitempty"`
	Profession string     `json:"profession,omitempty"`
	Contact    *Contact   `json:"contactInfo,omitempty"`
	Social     *Social    `json:"socialAccounts,omitempty"`
	ProfileImg *Image     `json:"profileImg,omitempty"`
	IsBlocked  bool       `json:"isBlocked,omitempty"`
	IsDeleted  bool       `json:"isDeleted,omitempty"`
	CreatedAt  *time.Time `json:"createdAt,omitempty"`

	// mentor
	MentorStatus   string   `json:"mentorStatus,omitempty"`
	Designation    string   `json:"designation,omitempty"`
	DepartmentName string   `json:"departmentName,omitempty"`
	Expertise      string   `json:"expertise,omitempty"`
	Education      []string `json:"education_qualification,omitempty"`
	WorkExperience []string `json:"workExperience,omitempty"`
	JoinedCourses  []string `json:"myJoinedCourses,omitempty"`

	// student
	EnrolledCourses []string `json:"enrolledCourses,omitempty"`
}

// Clone returns a deep copy so callers never share slices with the store.
func (i *Identity) Clone() *Identity {
	if i == nil {
		return nil
	}
	c := *i
	if i.Contact != nil {
		v := *i.Contact
		c.Contact = &v
	}
	if i.Social != nil {
		v := *i.Social
		c.Social = &v
	}
	if i.ProfileImg != nil {
		v := *i.ProfileImg
		c.ProfileImg = &v
	}
	c.Education = append([]string(nil), i.Education...)
	c.WorkExperience = append([]string(nil), i.WorkExperience...)
	c.JoinedCourses = append([]string(nil), i.JoinedCourses...)
	c.EnrolledCourses = append([]string(nil), i.EnrolledCourses...)
	return &c
}

type Category struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
	Icon *struct {
		IconURL      string `json:"iconUrl"`
		IconPublicID string `json:"iconPublicId"`
	} `json:"icon,omitempty"`
}

type Project struct {
	Title       string `json:"title"`
	Thumbnail   string `json:"thumbnail"`
	Description string `json:"description"`
}

type Course struct {
	ID               string     `json:"_id"`
	Title            string     `json:"title"`
	About            string     `json:"about,omitempty"`
	BatchNo          int        `json:"batchNo,omitempty"`
	Ratings          float64    `json:"ratings,omitempty"`
	EnrolledStudents int        `json:"enrolledStudents"`
	Duration         string     `json:"duration,omitempty"`
	Live             bool       `json:"live"`
	Thumbnail        *Image     `json:"thumbnail,omitempty"`
	IntroVideo       string     `json:"introVideo,omitempty"`
	Price            float64    `json:"price"`
	IsFree           bool       `json:"isFree"`
	Discount         float64    `json:"discount,omitempty"`
	Category         string     `json:"category,omitempty"`
	Instructors      []string   `json:"instructors,omitempty"`
	Modules          []string   `json:"modules,omitempty"`
	WhatYouWillLearn []string   `json:"whatYouWillLearn,omitempty"`
	ForWhom          []string   `json:"forWhom,omitempty"`
	Projects         []Project  `json:"projectsFromThis,omitempty"`
	IsFeatured       bool       `json:"isFeatured"`
	Popular          int        `json:"popular,omitempty"`
	Enrollments      int        `json:"enrollments,omitempty"`
	CreatedAt        *time.Time `json:"createdAt,omitempty"`
}

type Progress struct {
	TotalModules int     `json:"totalModules"`
	TotalVideos  int     `json:"totalVideos"`
	Percentage   float64 `json:"percentage"`
}

type EnrollmentStatus string

const (
	EnrollmentPaid      EnrollmentStatus = "paid"
	EnrollmentPending   EnrollmentStatus = "pending"
	EnrollmentCancelled EnrollmentStatus = "cancelled"
)

type Enrollment struct {
	ID                string           `json:"_id"`
	Course            *Course          `json:"courseId,omitempty"`
	TotalAmount       float64          `json:"totalAmount"`
	Discounted        float64          `json:"discounted"`
	DiscountType      string           `json:"discountType,omitempty"`
	Status            EnrollmentStatus `json:"status"`
	TransactionID     string           `json:"transactionId,omitempty"`
	Progress          *Progress        `json:"progress,omitempty"`
	IsCompleted       bool             `json:"isCompleted"`
	CertificateIssued bool             `json:"certificateIssued"`
}

type Coupon struct {
	Code         string  `json:"code"`
	Discount     float64 `json:"discount"`
	DiscountType string  `json:"discountType"` // "percentage" | "amount"
	MinSpend     float64 `json:"minSpend,omitempty"`
	MaxDiscount  float64 `json:"maxDiscount,omitempty"`
}

// Member is an account row in the admin panels.
type Member struct {
	ID           string `json:"_id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         Role   `json:"role"`
	MentorStatus string `json:"mentorStatus,omitempty"`
	IsBlocked    bool   `json:"isBlocked"`
	IsDeleted    bool   `json:"isDeleted"`
	Expertise    string `json:"expertise,omitempty"`
}

// Page is one page of a backend listing.
type Page[T any] struct {
	Items       []T `json:"items"`
	Total       int `json:"total"`
	TotalPages  int `json:"total_pages"`
	CurrentPage int `json:"current_page"`
}
