package service

import (
	"strings"
	"unicode/utf8"

	"github.com/lectio/lectio/internal/domain"
)

// DefaultMaxChunkTokens bounds one transcript chunk. The value leaves
// ample headroom under embedding-model input limits while keeping a
// chunk a coherent retrieval unit.
const DefaultMaxChunkTokens = 500

// EstimateTokens approximates the token count of a text. The estimate
// (one token per four characters) tracks how BPE tokenizers behave on
// English prose closely enough for chunk sizing, and unlike a live
// tokenizer it is fully deterministic and dependency-free.
func EstimateTokens(s string) int {
	n := utf8.RuneCountInString(s)
	if n == 0 {
		return 0
	}
	return (n + 3) / 4
}

// maxRunesFor is the rune budget corresponding to a token budget under
// the 4-runes-per-token estimate.
func maxRunesFor(maxTokens int) int {
	return maxTokens * 4
}

// SplitTranscript splits free text into token-bounded chunks, breaking
// at paragraph and sentence boundaries where possible so each chunk is
// a semantically coherent unit. Splitting is deterministic: identical
// input always yields identical chunks. Returned chunks carry 0-based
// indexes and exact token counts; LectureID and Embedding are left for
// the caller.
func SplitTranscript(text string, maxTokens int) []domain.TranscriptChunk {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxChunkTokens
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	maxRunes := maxRunesFor(maxTokens)

	var chunks []domain.TranscriptChunk
	var cur strings.Builder
	curRunes := 0

	flush := func() {
		if cur.Len() == 0 {
			return
		}
		chunkText := cur.String()
		chunks = append(chunks, domain.TranscriptChunk{
			ChunkIndex: len(chunks),
			Text:       chunkText,
			TokenCount: EstimateTokens(chunkText),
		})
		cur.Reset()
		curRunes = 0
	}

	add := func(piece string, runes int) {
		if cur.Len() > 0 {
			cur.WriteByte(' ')
			curRunes++
		}
		cur.WriteString(piece)
		curRunes += runes
	}

	// fits reports whether appending a piece keeps the chunk inside the
	// rune budget, counting the joining space.
	fits := func(runes int) bool {
		if cur.Len() == 0 {
			return runes <= maxRunes
		}
		return curRunes+1+runes <= maxRunes
	}

	for _, paragraph := range splitParagraphs(text) {
		for _, sentence := range splitSentences(paragraph) {
			runes := utf8.RuneCountInString(sentence)
			if runes > maxRunes {
				// A single run-on sentence over the budget gets hard-split
				// on word boundaries.
				flush()
				for _, piece := range splitByWords(sentence, maxRunes) {
					add(piece, utf8.RuneCountInString(piece))
					flush()
				}
				continue
			}
			if !fits(runes) {
				flush()
			}
			add(sentence, runes)
		}
	}
	flush()
	return chunks
}

func splitParagraphs(text string) []string {
	var paragraphs []string
	for _, p := range strings.Split(text, "\n\n") {
		p = strings.TrimSpace(p)
		if p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return paragraphs
}

// splitSentences breaks a paragraph after terminal punctuation followed
// by whitespace. It never drops characters: joining the result with
// single spaces reproduces the whitespace-normalized paragraph.
func splitSentences(paragraph string) []string {
	fields := strings.Fields(paragraph)
	if len(fields) == 0 {
		return nil
	}

	var sentences []string
	var cur []string
	for _, word := range fields {
		cur = append(cur, word)
		if endsSentence(word) {
			sentences = append(sentences, strings.Join(cur, " "))
			cur = cur[:0]
		}
	}
	if len(cur) > 0 {
		sentences = append(sentences, strings.Join(cur, " "))
	}
	return sentences
}

func endsSentence(word string) bool {
	r, _ := utf8.DecodeLastRuneInString(word)
	return r == '.' || r == '!' || r == '?'
}

func splitByWords(sentence string, maxRunes int) []string {
	words := strings.Fields(sentence)
	var pieces []string
	var cur []string
	curRunes := 0
	for _, word := range words {
		runes := utf8.RuneCountInString(word)
		if len(cur) > 0 && curRunes+1+runes > maxRunes {
			pieces = append(pieces, strings.Join(cur, " "))
			cur = cur[:0]
			curRunes = 0
		}
		if len(cur) > 0 {
			curRunes++
		}
		cur = append(cur, word)
		curRunes += runes
	}
	if len(cur) > 0 {
		pieces = append(pieces, strings.Join(cur, " "))
	}
	return pieces
}
