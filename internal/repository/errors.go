package repository

import "errors"

// ErrConflict - запись нарушает уникальность (время уже занято)
var ErrConflict = errors.New("conflicting record")

// ErrNotFound - запись не найдена там, где она обязана быть
var ErrNotFound = errors.New("record not found")
