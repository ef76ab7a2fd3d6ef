// Package language normalizes content language tags and negotiates the
// request language between a source's supported set and the configured
// content language.
//
// Tag normalization collapses the Chinese variants that providers spell
// inconsistently (zh, zh-CN, zh-Hans and zh-TW, zh-HK, zh-Hant) onto the
// canonical zh-Hans / zh-Hant pair and folds every English variant onto "en".
// Unrecognized tags pass through trimmed but otherwise unchanged so that
// user-configured sources keep whatever vocabulary their provider uses.
package language
