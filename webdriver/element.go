package webdriver

import (
	"fmt"

	"github.com/tebeka/selenium"
)

// Locator says how to find an element.
type Locator struct {
	By    string
	Value string
}

func ByID(id string) Locator {
	return Locator{By: selenium.ByID, Value: id}
}

func ByCSS(selector string) Locator {
	return Locator{By: selenium.ByCSSSelector, Value: selector}
}

func (l Locator) String() string {
	switch l.By {
	case selenium.ByID:
		return "#" + l.Value
	case selenium.ByCSSSelector:
		return l.Value
	default:
		return fmt.Sprintf("%s=%q", l.By, l.Value)
	}
}

// Element is an element found in the application's document.
type Element struct {
	we      selenium.WebElement
	locator Locator
}

func (e *Element) Locator() Locator {
	return e.locator
}

// Text is the element's rendered text.
func (e *Element) Text() (string, error) {
	text, err := e.we.Text()
	if err != nil {
		return "", fmt.Errorf("could not read text of %s: %w", e.locator, err)
	}
	return text, nil
}

// CSSValue is the computed value of a CSS property, for instance "rgb(0, 0, 0)" for
// "background-color".
func (e *Element) CSSValue(property string) (string, error) {
	value, err := e.we.CSSProperty(property)
	if err != nil {
		return "", fmt.Errorf("could not read CSS property %q of %s: %w", property, e.locator, err)
	}
	return value, nil
}
