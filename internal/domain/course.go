package domain

import "strings"

type CourseType string

const (
	CourseTrial        CourseType = "trial"
	CourseConversation CourseType = "conversation"
	CourseCurriculum   CourseType = "curriculum"
	CourseExam         CourseType = "exam"
)

func ParseCourseType(s string) (CourseType, error) {
	ct := CourseType(strings.ToLower(strings.TrimSpace(s)))
	if !ct.Valid() {
		return "", ErrInvalidCourseType
	}
	return ct, nil
}

func (c CourseType) Valid() bool {
	switch c {
	case CourseTrial, CourseConversation, CourseCurriculum, CourseExam:
		return true
	}
	return false
}
