package sequence

import (
	"cmp"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// MinimumItems is the smallest number of members a collection may have.
const MinimumItems = 2

var digitsPattern = regexp.MustCompile(`\d+`)

// Collection is a set of names sharing Head and Tail around one frame number.
// Padding is the fixed width of zero-padded frames, or 0 when unpadded.
type Collection struct {
	Head    string
	Tail    string
	Padding int
	Frames  []int
}

// Names returns the member names in frame order.
func (c Collection) Names() []string {
	names := make([]string, 0, len(c.Frames))
	for _, frame := range c.Frames {
		names = append(names, c.Format(frame))
	}
	return names
}

// Format renders the member name for frame.
func (c Collection) Format(frame int) string {
	return c.Head + fmt.Sprintf("%0*d", c.Padding, frame) + c.Tail
}

// Pattern returns the printf-style member pattern, e.g. "shot.%04d.txt".
func (c Collection) Pattern() string {
	if c.Padding > 0 {
		return fmt.Sprintf("%s%%0%dd%s", c.Head, c.Padding, c.Tail)
	}
	return c.Head + "%d" + c.Tail
}

// Start is the first frame.
func (c Collection) Start() int {
	if len(c.Frames) == 0 {
		return 0
	}
	return c.Frames[0]
}

// End is the last frame.
func (c Collection) End() int {
	if len(c.Frames) == 0 {
		return 0
	}
	return c.Frames[len(c.Frames)-1]
}

// String renders the pattern followed by the contiguous frame ranges, e.g.
// "shot.%04d.txt [1-3, 5]".
func (c Collection) String() string {
	return c.Pattern() + " [" + strings.Join(frameRanges(c.Frames), ", ") + "]"
}

func frameRanges(frames []int) []string {
	var ranges []string
	for i := 0; i < len(frames); {
		j := i
		for j+1 < len(frames) && frames[j+1] == frames[j]+1 {
			j++
		}
		if i == j {
			ranges = append(ranges, strconv.Itoa(frames[i]))
		} else {
			ranges = append(ranges, fmt.Sprintf("%d-%d", frames[i], frames[j]))
		}
		i = j + 1
	}
	return ranges
}

type candidateKey struct {
	head    string
	tail    string
	padding int
}

type member struct {
	position int
	frame    int
	width    int
}

type candidate struct {
	key     candidateKey
	members []member
}

// Assemble partitions names into collections and remainders. A name that
// could join several collections joins the one with the most members; ties go
// to the right-most frame number in the name. Collections are ordered by the
// input position of their first member, remainders keep input order.
func Assemble(names []string) ([]Collection, []string) {
	candidates := map[candidateKey]*candidate{}
	for position, name := range names {
		for _, loc := range digitsPattern.FindAllStringIndex(name, -1) {
			digits := name[loc[0]:loc[1]]
			frame, err := strconv.Atoi(digits)
			if err != nil {
				continue
			}
			padding := 0
			if len(digits) > 1 && digits[0] == '0' {
				padding = len(digits)
			}
			key := candidateKey{head: name[:loc[0]], tail: name[loc[1]:], padding: padding}
			c, ok := candidates[key]
			if !ok {
				c = &candidate{key: key}
				candidates[key] = c
			}
			c.members = append(c.members, member{position: position, frame: frame, width: len(digits)})
		}
	}

	absorbUnpadded(candidates)

	assigned := make([]bool, len(names))
	var collections []Collection
	var firsts []int
	for {
		best, bestMembers := pickCandidate(candidates, assigned)
		if best == nil {
			break
		}
		delete(candidates, best.key)
		slices.SortFunc(bestMembers, func(a, b member) int { return cmp.Compare(a.frame, b.frame) })
		frames := make([]int, 0, len(bestMembers))
		first := len(names)
		for _, m := range bestMembers {
			assigned[m.position] = true
			frames = append(frames, m.frame)
			first = min(first, m.position)
		}
		collections = append(collections, Collection{
			Head:    best.key.head,
			Tail:    best.key.tail,
			Padding: best.key.padding,
			Frames:  frames,
		})
		firsts = append(firsts, first)
	}

	order := make([]int, len(collections))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int { return cmp.Compare(firsts[a], firsts[b]) })
	sorted := make([]Collection, 0, len(collections))
	for _, idx := range order {
		sorted = append(sorted, collections[idx])
	}

	var remainders []string
	for position, name := range names {
		if !assigned[position] {
			remainders = append(remainders, name)
		}
	}
	return sorted, remainders
}

// absorbUnpadded moves unpadded members whose digit count equals a padded
// candidate's width into that candidate, so "0998" and "1001" share a
// four-digit collection.
func absorbUnpadded(candidates map[candidateKey]*candidate) {
	for key, padded := range candidates {
		if key.padding == 0 {
			continue
		}
		loose, ok := candidates[candidateKey{head: key.head, tail: key.tail}]
		if !ok {
			continue
		}
		kept := loose.members[:0]
		for _, m := range loose.members {
			if m.width == key.padding {
				padded.members = append(padded.members, m)
				continue
			}
			kept = append(kept, m)
		}
		loose.members = kept
	}
}

// pickCandidate returns the candidate with the most unassigned members and
// those members, or nil when no candidate reaches MinimumItems.
func pickCandidate(candidates map[candidateKey]*candidate, assigned []bool) (*candidate, []member) {
	var best *candidate
	var bestMembers []member
	for _, c := range candidates {
		var free []member
		seen := map[int]bool{}
		for _, m := range c.members {
			if assigned[m.position] || seen[m.frame] {
				continue
			}
			seen[m.frame] = true
			free = append(free, m)
		}
		if len(free) < MinimumItems {
			continue
		}
		if best == nil || better(c, free, best, bestMembers) {
			best, bestMembers = c, free
		}
	}
	return best, bestMembers
}

func better(c *candidate, members []member, best *candidate, bestMembers []member) bool {
	if len(members) != len(bestMembers) {
		return len(members) > len(bestMembers)
	}
	if len(c.key.head) != len(best.key.head) {
		return len(c.key.head) > len(best.key.head)
	}
	if c.key.head != best.key.head {
		return c.key.head < best.key.head
	}
	if c.key.tail != best.key.tail {
		return c.key.tail < best.key.tail
	}
	return c.key.padding > best.key.padding
}
