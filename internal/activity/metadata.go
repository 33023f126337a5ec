package activity

import "taskflow/internal/models"

func Titled(title string) models.Metadata {
	return models.Metadata{"title": title}
}

// Moved carries the source and target list titles and positions.
func Moved(title, fromList, toList string, fromPos, toPos int) models.Metadata {
	return models.Metadata{
		"title":        title,
		"fromList":     fromList,
		"toList":       toList,
		"fromPosition": fromPos,
		"toPosition":   toPos,
	}
}

// Changed carries the fields an update touched.
func Changed(title string, changes map[string]any) models.Metadata {
	return models.Metadata{"title": title, "changes": changes}
}

func TaskCreated(title, listTitle string) models.Metadata {
	return models.Metadata{"title": title, "listTitle": listTitle}
}

func MemberAdded(email string, role models.Role) models.Metadata {
	return models.Metadata{"email": email, "role": string(role)}
}
