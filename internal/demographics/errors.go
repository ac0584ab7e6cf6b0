package demographics

import "errors"

var errIncomplete = errors.New("fetched profile is missing a category")
