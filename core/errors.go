package core

import "errors"

var ErrTemplateNotFound = errors.New("display: template not found")

func IsTemplateNotFound(err error) bool {
	return errors.Is(err, ErrTemplateNotFound)
}
