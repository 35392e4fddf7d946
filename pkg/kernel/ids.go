package kernel

type ScreeningID string

func NewScreeningID(id string) ScreeningID { return ScreeningID(id) }
func (s ScreeningID) String() string       { return string(s) }
func (s ScreeningID) IsEmpty() bool        { return string(s) == "" }

type JobID string

func NewJobID(id string) JobID { return JobID(id) }
func (j JobID) String() string { return string(j) }
func (j JobID) IsEmpty() bool  { return string(j) == "" }
