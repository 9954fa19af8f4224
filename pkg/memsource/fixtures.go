package memsource

import "fmt"

var departments = []string{"engineering", "sales", "support"}

// SampleUsers returns n deterministic user records with id, name, email,
// department and age fields.
func SampleUsers(n int) []Record {
	records := make([]Record, 0, n)
	for i := 1; i <= n; i++ {
		records = append(records, Record{
			"id":         fmt.Sprintf("%d", i),
			"name":       fmt.Sprintf("User %02d", i),
			"email":      fmt.Sprintf("user%02d@example.com", i),
			"department": departments[(i-1)%len(departments)],
			"age":        float64(20 + i%30),
		})
	}
	return records
}
